package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Payment states and empty states.
const (
	StatusUpToDate = "Al día"
	StatusDebt     = "Deuda Pendiente"

	NoPayments = "No hay pagos registrados."
)

// PaymentsPage lists payments with the program totals.
type PaymentsPage struct {
	Student  string                  `json:"student,omitempty" yaml:"student,omitempty"`
	Academic *portalsdk.AcademicInfo `json:"academic,omitempty" yaml:"academic,omitempty"`
	Payments []portalsdk.Payment     `json:"payments" yaml:"payments"`
	Empty    string                  `json:"empty,omitempty" yaml:"empty,omitempty"`

	Count          int     `json:"count" yaml:"count"`
	TotalPrograma  float64 `json:"totalPrograma" yaml:"totalPrograma"`
	TotalPagado    float64 `json:"totalPagado" yaml:"totalPagado"`
	TotalPendiente float64 `json:"totalPendiente" yaml:"totalPendiente"`

	// Progress is the paid share of the program in percent.
	Progress float64 `json:"progress" yaml:"progress"`
	Status   string  `json:"status" yaml:"status"`
}

// Payments loads the payments page. The student header is optional.
func (p *Pages) Payments(ctx context.Context) (*PaymentsPage, error) {
	var (
		academic *portalsdk.AcademicInfo
		report   *portalsdk.PaymentsReport
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
		r, err := p.API.GetPayments(gctx)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := BuildPayments(report)
	page.Academic = academic
	page.Student = FullName(academic)
	return page, nil
}

// BuildPayments shapes a payments report.
func BuildPayments(report *portalsdk.PaymentsReport) *PaymentsPage {
	page := &PaymentsPage{Payments: []portalsdk.Payment{}, Status: StatusUpToDate}
	if report == nil {
		page.Empty = NoPayments
		return page
	}

	page.Payments = append(page.Payments, report.Pagos...)
	page.Count = len(report.Pagos)
	page.TotalPrograma = report.TotalPrograma
	page.TotalPagado = report.TotalPagado
	page.TotalPendiente = report.TotalPendiente

	if page.Count == 0 {
		page.Empty = NoPayments
	}
	if report.TotalPrograma > 0 {
		page.Progress = report.TotalPagado / report.TotalPrograma * 100
	}
	if report.TotalPendiente > 0 {
		page.Status = StatusDebt
	}

	return page
}
