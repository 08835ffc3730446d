package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/portal/internal/format"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ErrUnsupported is returned when a value has no table layout.
var ErrUnsupported = errors.New("views: unsupported value")

// ParseFormat accepts table, json and yaml.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// StatusPage describes the local session.
type StatusPage struct {
	State        string `json:"state" yaml:"state"`
	Username     string `json:"username,omitempty" yaml:"username,omitempty"`
	FirstSession bool   `json:"firstSession" yaml:"firstSession"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewStatusPage summarises a session.
func NewStatusPage(s portalsdk.Session) *StatusPage {
	return &StatusPage{
		State:        portalsdk.StateOf(s).String(),
		Username:     s.Username,
		FirstSession: s.FirstSession,
		Error:        s.Error,
	}
}

// Render writes v to w in the given format.
func Render(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return renderTable(w, v)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

func renderTable(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch page := v.(type) {
	case *DashboardPage:
		dashboardTable(tw, page)
	case *GradesPage:
		gradesTable(tw, page)
	case *PaymentsPage:
		paymentsTable(tw, page)
	case *ProfilePage:
		profileTable(tw, page)
	case *StatusPage:
		fmt.Fprintf(tw, "Estado:\t%s\n", page.State)
		if page.Username != "" {
			fmt.Fprintf(tw, "Usuario:\t%s\n", page.Username)
		}
		if page.Error != "" {
			fmt.Fprintf(tw, "Error:\t%s\n", page.Error)
		}
	case *Outcome:
		if page.Message != "" {
			fmt.Fprintln(tw, page.Message)
		}
	case *portalsdk.MessageResult:
		fmt.Fprintln(tw, page.Message)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}

	return tw.Flush()
}

func dashboardTable(w io.Writer, p *DashboardPage) {
	fmt.Fprintln(w, p.Welcome)
	fmt.Fprintln(w)

	switch info := p.Academic.Data; {
	case !p.Academic.OK():
		fmt.Fprintf(w, "Información académica:\t%s\n", p.Academic.Error)
	case info != nil:
		academicHeader(w, info)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Avisos")
	switch {
	case !p.Notices.OK():
		fmt.Fprintf(w, "  %s\n", p.Notices.Error)
	case len(p.Notices.Data) == 0:
		fmt.Fprintf(w, "  %s\n", NoNotices)
	default:
		for _, n := range p.Notices.Data {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", n.Titulo, format.Truncate(n.Cuerpo, 100), n.EnlaceVerMas)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Enlaces importantes")
	switch {
	case !p.Links.OK():
		fmt.Fprintf(w, "  %s\n", p.Links.Error)
	case len(p.Links.Data) == 0:
		fmt.Fprintf(w, "  %s\n", NoLinks)
	default:
		for _, l := range p.Links.Data {
			fmt.Fprintf(w, "  %s\t%s\n", l.Titulo, l.Enlace)
		}
	}
}

func academicHeader(w io.Writer, info *portalsdk.AcademicInfo) {
	if name := FullName(info); name != "" {
		fmt.Fprintf(w, "Alumno:\t%s\n", name)
	}
	fmt.Fprintf(w, "Código:\t%s\n", info.Alumno)
	fmt.Fprintf(w, "Programa:\t%s\n", info.Carrera)
	if info.Especialidad != "" {
		fmt.Fprintf(w, "Especialidad:\t%s\n", info.Especialidad)
	}
}

func gradesTable(w io.Writer, p *GradesPage) {
	if p.Academic != nil {
		academicHeader(w, p.Academic)
		fmt.Fprintln(w)
	}
	if len(p.Semesters) > 0 {
		fmt.Fprintf(w, "Semestre:\t%s\t(%s)\n", p.Semester, strings.Join(p.Semesters, ", "))
		fmt.Fprintln(w)
	}

	if len(p.Rows) == 0 {
		fmt.Fprintln(w, p.Empty)
		return
	}

	fmt.Fprintln(w, "Curso\tCréditos\tNota\tEstado\tTipo\tFecha Fin\tResolución")
	for _, r := range p.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.NombreCurso,
			strconv.FormatFloat(r.Creditos, 'f', -1, 64),
			format.Grade(r.Nota),
			r.Estado,
			r.Tipo,
			format.Date(r.FechaFin),
			r.Resolucion,
		)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cursos llevados:\t%d\n", p.TotalCourses)
	fmt.Fprintf(w, "Cursos aprobados:\t%d\n", p.Approved)
	fmt.Fprintf(w, "Total de créditos:\t%s\n", strconv.FormatFloat(p.TotalCreditos, 'f', -1, 64))
}

func paymentsTable(w io.Writer, p *PaymentsPage) {
	if p.Academic != nil {
		academicHeader(w, p.Academic)
		fmt.Fprintln(w)
	}

	if len(p.Payments) == 0 {
		fmt.Fprintln(w, p.Empty)
	} else {
		fmt.Fprintln(w, "Recibo\tSemestre\tMonto\tFecha\tLugar de Pago")
		for _, pay := range p.Payments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				pay.Recibo, pay.Semestre, format.Currency(pay.Monto), format.Date(pay.Fecha), pay.LugarPago)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total de Pagos:\t%d\n", p.Count)
	fmt.Fprintf(w, "Costo Total del Programa:\t%s\n", format.Currency(p.TotalPrograma))
	fmt.Fprintf(w, "Total Pagado:\t%s\n", format.Currency(p.TotalPagado))
	if p.Status == StatusDebt {
		fmt.Fprintf(w, "%s:\t%s\n", StatusDebt, format.Currency(p.TotalPendiente))
	} else {
		fmt.Fprintf(w, "Estado:\t%s\n", p.Status)
	}
	fmt.Fprintf(w, "Progreso de Pagos:\t%s%%\n", strconv.FormatFloat(p.Progress, 'f', 1, 64))
}

func profileTable(w io.Writer, p *ProfilePage) {
	if p.Error != "" {
		fmt.Fprintf(w, "%s (mostrando datos guardados)\n\n", p.Error)
	}
	info := p.Personal
	if info == nil {
		return
	}
	fmt.Fprintf(w, "Nombre:\t%s\n", format.Title(format.FullName(info.Nombres, info.ApellidoPaterno, info.ApellidoMaterno)))
	fmt.Fprintf(w, "Código:\t%s\n", info.Alumno)
	fmt.Fprintf(w, "DNI:\t%s\n", orPlaceholder(info.NroDocumento))
	fmt.Fprintf(w, "Correo:\t%s\n", orPlaceholder(info.Email))
	fmt.Fprintf(w, "Teléfono:\t%s\n", orPlaceholder(info.Telefono))
	fmt.Fprintf(w, "Dirección:\t%s\n", orPlaceholder(info.Direccion))
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return format.Placeholder
	}
	return s
}
