package samvidha

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// rejected reports if the check response is a failure: an empty body, a
// falsy json value, or an object with success set to false. Anything that is
// not json proceeds, some deployments answer with a plain page.
func rejected(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	var res any
	err := json.Unmarshal(body, &res)
	if err != nil {
		return false
	}

	switch value := res.(type) {
	case nil:
		return true
	case bool:
		return !value
	case float64:
		return value == 0
	case string:
		return value == ""
	case map[string]any:
		success, ok := value["success"].(bool)
		return ok && !success
	}
	return false
}

func issuedCookies(res *resty.Response) Credential {
	var cookies Credential
	for _, cookie := range res.Cookies() {
		cookies = append(cookies, fmt.Sprintf("%s=%s", cookie.Name, cookie.Value))
	}
	return cookies
}

// AcquireSession logs into the portal the way its login page does: the
// credentials are checked first, then the dashboard is opened to finish
// setting up the session.
//
// There are no retries, a rejected login returns InvalidCredentials.
func (c *Client) AcquireSession(ctx context.Context, username, password string) (Credential, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		Post(string(EndpointCheckUser))
	if err != nil {
		c.tel.ReportBroken(report_client_acquire_session, fmt.Errorf("check user: %w", err))
		return nil, unavailable(err)
	}
	if rejected(res.Body()) {
		return nil, InvalidCredentials
	}
	credential := issuedCookies(res)

	res, err = c.http.R().
		SetContext(ctx).
		SetHeader("Cookie", credential.Header()).
		Get(string(EndpointDashboard))
	if err != nil {
		c.tel.ReportBroken(report_client_acquire_session, fmt.Errorf("open dashboard: %w", err))
		return nil, unavailable(err)
	}
	credential = append(credential, issuedCookies(res)...)

	if len(credential) == 0 {
		c.tel.ReportWarning(report_client_acquire_session, "login succeeded without any cookies being issued")
	}
	return credential, nil
}
