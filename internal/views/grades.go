package views

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Grade states and empty states.
const (
	StatusApproved    = "Aprobado"
	StatusDisapproved = "Desaprobado"

	NoGrades         = "No hay notas disponibles."
	NoSemesterGrades = "No hay notas disponibles para este semestre."
)

var tipoNotaLabels = map[string]string{
	"R": "Regular",
	"H": "Homologación",
	"C": "Convalidación",
}

// TipoNotaLabel names a grade type code. Unknown codes are returned as is.
func TipoNotaLabel(code string) string {
	if label, ok := tipoNotaLabels[code]; ok {
		return label
	}
	return code
}

// GradeRow is one line of the grades table.
type GradeRow struct {
	portalsdk.Grade `yaml:",inline"`

	Estado string `json:"estado" yaml:"estado"`
	Tipo   string `json:"tipo" yaml:"tipo"`
}

// GradesPage lists grades for one semester.
type GradesPage struct {
	Student   string                  `json:"student,omitempty" yaml:"student,omitempty"`
	Academic  *portalsdk.AcademicInfo `json:"academic,omitempty" yaml:"academic,omitempty"`
	Semesters []string                `json:"semesters" yaml:"semesters"`
	Semester  string                  `json:"semester" yaml:"semester"`
	Rows      []GradeRow              `json:"rows" yaml:"rows"`
	Empty     string                  `json:"empty,omitempty" yaml:"empty,omitempty"`

	// Totals cover every semester.
	TotalCourses  int     `json:"totalCourses" yaml:"totalCourses"`
	Approved      int     `json:"approved" yaml:"approved"`
	TotalCreditos float64 `json:"totalCreditos" yaml:"totalCreditos"`
}

// Grades loads the grades page. An empty semester selects the latest one.
// The student header is optional; only a grades failure fails the page.
func (p *Pages) Grades(ctx context.Context, semester string) (*GradesPage, error) {
	var (
		academic *portalsdk.AcademicInfo
		report   *portalsdk.GradesReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := p.API.GetAcademicInfo(gctx)
		if err != nil {
			p.logger().Warn("academic info failed to load", "error", err)
			return nil
		}
		academic = info
		return nil
	})
	g.Go(func() error {
		r, err := p.API.GetGrades(gctx)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := BuildGrades(report, semester)
	page.Academic = academic
	page.Student = FullName(academic)
	return page, nil
}

// BuildGrades shapes a grades report for one semester.
func BuildGrades(report *portalsdk.GradesReport, semester string) *GradesPage {
	page := &GradesPage{Semesters: []string{}, Rows: []GradeRow{}}
	if report == nil || len(report.Notas) == 0 {
		page.Empty = NoGrades
		return page
	}

	page.Semesters = Semesters(report.Notas)
	page.TotalCreditos = report.TotalCreditos
	page.TotalCourses = len(report.Notas)
	for _, n := range report.Notas {
		if n.Approved() {
			page.Approved++
		}
	}

	if semester == "" {
		semester = page.Semesters[len(page.Semesters)-1]
	}
	page.Semester = semester

	for _, n := range report.Notas {
		if n.Semestre != semester {
			continue
		}
		row := GradeRow{Grade: n, Estado: StatusDisapproved, Tipo: TipoNotaLabel(n.TipoNota)}
		if n.Approved() {
			row.Estado = StatusApproved
		}
		page.Rows = append(page.Rows, row)
	}
	if len(page.Rows) == 0 {
		page.Empty = NoSemesterGrades
	}

	return page
}

// Semesters returns the distinct semesters in ascending order.
func Semesters(grades []portalsdk.Grade) []string {
	out := make([]string, 0, len(grades))
	for _, g := range grades {
		out = append(out, g.Semestre)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
