package samvidha

import (
	"context"
	"fmt"
	"net/url"
)

// Endpoint is a path (and query) on the portal.
type Endpoint string

const (
	EndpointCheckUser     Endpoint = "/pages/login/checkUser.php"
	EndpointDashboard     Endpoint = "/home"
	EndpointAcademic      Endpoint = "/home?action=stud_att_STD"
	EndpointBiometric     Endpoint = "/home?action=std_bio"
	EndpointCourseContent Endpoint = "/home?action=course_content"
	EndpointTimetable     Endpoint = "/home?action=TT_std"
)

type fetchOptions struct {
	form    url.Values
	referer bool
}

// Fetch requests an endpoint with the credential attached, it is a GET unless
// form is non-nil, in which case the form is POSTed.
//
// The body is returned whatever the status code, the portal answers errors
// with regular pages.
func (c *Client) Fetch(ctx context.Context, endpoint Endpoint, credential Credential, form url.Values) ([]byte, error) {
	return c.fetch(ctx, endpoint, credential, fetchOptions{form: form})
}

func (c *Client) fetch(ctx context.Context, endpoint Endpoint, credential Credential, opts fetchOptions) ([]byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", credential.Header())
	if opts.referer {
		req.SetHeader("Referer", c.baseUrl+string(endpoint))
	}

	method := "GET"
	if opts.form != nil {
		method = "POST"
		req.SetFormDataFromValues(opts.form)
	}

	res, err := req.Execute(method, string(endpoint))
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, fmt.Errorf("%s %s: %w", method, endpoint, err))
		return nil, unavailable(err)
	}
	return res.Body(), nil
}

func (c *Client) AcademicPage(ctx context.Context, credential Credential) ([]byte, error) {
	return c.Fetch(ctx, EndpointAcademic, credential, nil)
}

func (c *Client) BiometricPage(ctx context.Context, credential Credential) ([]byte, error) {
	return c.Fetch(ctx, EndpointBiometric, credential, nil)
}

// CourseContentPage holds both the latest attendance and the attendance register.
func (c *Client) CourseContentPage(ctx context.Context, credential Credential) ([]byte, error) {
	return c.Fetch(ctx, EndpointCourseContent, credential, nil)
}

// SectionsPage is the timetable page for an academic year, its section dropdown
// lists the sections the student belongs to.
func (c *Client) SectionsPage(ctx context.Context, credential Credential, academicYear string) ([]byte, error) {
	return c.Fetch(ctx, EndpointTimetable, credential, url.Values{
		"ay": {academicYear},
	})
}

// TimetablePage submits the timetable form for a section, the portal only
// accepts the form after the page itself has been opened in the same session.
func (c *Client) TimetablePage(ctx context.Context, credential Credential, academicYear, section string) ([]byte, error) {
	_, err := c.Fetch(ctx, EndpointTimetable, credential, nil)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, EndpointTimetable, credential, fetchOptions{
		form: url.Values{
			"ay":             {academicYear},
			"sec_data":       {section},
			"btn_faculty_tt": {"show"},
		},
		referer: true,
	})
}
