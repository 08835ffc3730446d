package views

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/portal/internal/format"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Empty states.
const (
	NoNotices = "No hay avisos disponibles en este momento."
	NoLinks   = "No hay enlaces disponibles en este momento."
)

// DashboardPage is the landing page.
type DashboardPage struct {
	Welcome  string                           `json:"welcome" yaml:"welcome"`
	Academic Section[*portalsdk.AcademicInfo] `json:"academic" yaml:"academic"`
	Notices  Section[[]portalsdk.Notice]      `json:"notices" yaml:"notices"`
	Links    Section[[]portalsdk.Link]        `json:"links" yaml:"links"`
}

// Dashboard fetches academic info, notices and links in parallel. A failing
// section never hides the others.
func (p *Pages) Dashboard(ctx context.Context, username string) *DashboardPage {
	page := &DashboardPage{}

	var g errgroup.Group
	g.Go(func() error {
		page.Academic = load(ctx, p, "academic", p.API.GetAcademicInfo)
		return nil
	})
	g.Go(func() error {
		page.Notices = load(ctx, p, "notices", p.API.GetNotices)
		return nil
	})
	g.Go(func() error {
		page.Links = load(ctx, p, "links", p.API.GetLinks)
		return nil
	})
	_ = g.Wait()

	name := username
	if info := page.Academic.Data; info != nil {
		if full := FullName(info); full != "" {
			name = full
		}
	}
	page.Welcome = fmt.Sprintf("¡Bienvenid@, %s!", name)

	return page
}

// FullName is the display name of a student record.
func FullName(info *portalsdk.AcademicInfo) string {
	if info == nil {
		return ""
	}
	return format.Title(format.FullName(info.Nombres, info.ApellidoPaterno, info.ApellidoMaterno))
}
