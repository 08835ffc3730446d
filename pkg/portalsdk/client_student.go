package portalsdk

import (
	"context"
	"net/http"
)

// Student operations. All of them are authenticated and go through the
// refresh-and-retry pipeline.

// GetAcademicInfo retrieves the student's academic record.
func (c *Client) GetAcademicInfo(ctx context.Context) (*AcademicInfo, error) {
	return get[AcademicInfo](ctx, c, PathAcademicInfo, "Error al obtener información académica")
}

// GetPersonalInfo retrieves the student's personal record.
func (c *Client) GetPersonalInfo(ctx context.Context) (*PersonalInfo, error) {
	return get[PersonalInfo](ctx, c, PathPersonalInfo, "Error al obtener información personal")
}

// GetGrades retrieves every course grade and the credit total.
func (c *Client) GetGrades(ctx context.Context) (*GradesReport, error) {
	return get[GradesReport](ctx, c, PathGrades, "Error al obtener notas")
}

// GetPayments retrieves the payment history and totals.
func (c *Client) GetPayments(ctx context.Context) (*PaymentsReport, error) {
	return get[PaymentsReport](ctx, c, PathPayments, "Error al obtener pagos")
}

// GetNotices retrieves the current notices.
func (c *Client) GetNotices(ctx context.Context) ([]Notice, error) {
	notices, err := get[[]Notice](ctx, c, PathNotices, "Error al obtener avisos")
	if err != nil {
		return nil, err
	}
	return *notices, nil
}

// GetLinks retrieves the important links.
func (c *Client) GetLinks(ctx context.Context) ([]Link, error) {
	links, err := get[[]Link](ctx, c, PathLinks, "Error al obtener enlaces")
	if err != nil {
		return nil, err
	}
	return *links, nil
}

func get[T any](ctx context.Context, c *Client, path, fallback string) (*T, error) {
	cl, err := newCall(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	cl.refreshable = true
	cl.fallback = fallback

	data, err := execute[T](ctx, c, cl)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
