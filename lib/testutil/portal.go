package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// PortalRequest is a request received by a Portal.
type PortalRequest struct {
	Method  string
	Path    string
	Cookie  string
	Referer string
	Form    map[string]string
}

// Portal is a fake of the Samvidha portal that accepts a single account and
// serves the fixture pages.
type Portal struct {
	Username string
	Password string

	// Pages is keyed by the "action" query parameter, the timetable form
	// responses are keyed by "TT_std:sections" and "TT_std:grid".
	Pages map[string][]byte
	// CheckUserBody replaces the json the login check answers with when it is
	// not nil, the session cookie is still only issued for the right password.
	CheckUserBody *string

	lock     sync.Mutex
	requests []PortalRequest
	server   *httptest.Server
}

const portalSessionCookie = "PHPSESSID"

// DefaultPages are the fixture pages served for every action.
func DefaultPages() map[string][]byte {
	return map[string][]byte{
		"stud_att_STD":    AcademicHtml,
		"std_bio":         BiometricHtml,
		"course_content":  CourseContentHtml,
		"TT_std:sections": SectionsHtml,
		"TT_std:grid":     TimetableHtml,
	}
}

// NewPortal starts a fake portal that is shut down when the test ends.
func NewPortal(t testing.TB, username, password string, pages map[string][]byte) *Portal {
	p := &Portal{
		Username: username,
		Password: password,
		Pages:    pages,
	}
	p.server = httptest.NewServer(p.handler())
	t.Cleanup(p.server.Close)
	return p
}

func (p *Portal) URL() string {
	return p.server.URL
}

func (p *Portal) Requests() []PortalRequest {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]PortalRequest(nil), p.requests...)
}

// Paths lists the method and path of every request received, like "GET /home".
func (p *Portal) Paths() []string {
	var paths []string
	for _, req := range p.Requests() {
		paths = append(paths, fmt.Sprintf("%s %s", req.Method, req.Path))
	}
	return paths
}

func (p *Portal) record(r *http.Request) {
	r.ParseForm()
	form := map[string]string{}
	for key := range r.PostForm {
		form[key] = r.PostForm.Get(key)
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	p.requests = append(p.requests, PortalRequest{
		Method:  r.Method,
		Path:    r.URL.RequestURI(),
		Cookie:  r.Header.Get("Cookie"),
		Referer: r.Header.Get("Referer"),
		Form:    form,
	})
}

func (p *Portal) sessionValue() string {
	return "session-" + p.Username
}

// SessionCookie is the "name=value" cookie of a logged in session.
func (p *Portal) SessionCookie() string {
	return portalSessionCookie + "=" + p.sessionValue()
}

func (p *Portal) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(portalSessionCookie)
	return err == nil && cookie.Value == p.sessionValue()
}

func (p *Portal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pages/login/checkUser.php", func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		accepted := r.PostForm.Get("username") == p.Username && r.PostForm.Get("password") == p.Password
		if accepted {
			http.SetCookie(w, &http.Cookie{Name: portalSessionCookie, Value: p.sessionValue(), Path: "/"})
		}

		switch {
		case p.CheckUserBody != nil:
			fmt.Fprint(w, *p.CheckUserBody)
		case accepted:
			fmt.Fprint(w, `{"success": true}`)
		default:
			fmt.Fprint(w, `{"success": false, "message": "Invalid username or password"}`)
		}
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		p.record(r)
		if !p.loggedIn(r) {
			fmt.Fprint(w, "<html><body><form id=\"login\"></form></body></html>")
			return
		}

		action := r.URL.Query().Get("action")
		if action == "" {
			http.SetCookie(w, &http.Cookie{Name: "samvidha_token", Value: "dashboard", Path: "/"})
			fmt.Fprint(w, "<html><body>dashboard</body></html>")
			return
		}

		key := action
		if action == "TT_std" && r.Method == http.MethodPost {
			key = "TT_std:sections"
			if r.PostForm.Get("btn_faculty_tt") != "" {
				key = "TT_std:grid"
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page, ok := p.Pages[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			page = []byte("<html><body></body></html>")
		}
		w.Write(page)
	})
	return mux
}

// CountPath counts the requests whose path starts with prefix.
func (p *Portal) CountPath(prefix string) int {
	count := 0
	for _, req := range p.Requests() {
		if strings.HasPrefix(req.Path, prefix) {
			count++
		}
	}
	return count
}
