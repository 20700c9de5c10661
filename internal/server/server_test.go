package server

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/lib/testutil"
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "23951A0501"
	testPassword = "secret"
)

func newTestRouter(t *testing.T, pages map[string][]byte, config Config) http.Handler {
	location, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	clock := chrono.NewFakeImpl(time.Date(2025, 11, 24, 10, 30, 0, 0, location))
	tel := &telemetry.Recorder{}

	portal := testutil.NewPortal(t, testUsername, testPassword, pages)
	client, err := samvidha.NewClient(samvidha.Options{BaseUrl: portal.URL()}, tel)
	require.NoError(t, err)

	svc := attendance.NewService(
		client,
		scheduler.New(scheduler.Options{Clock: clock, Tel: tel}),
		testutil.OpenDB(t),
		clock,
		tel,
		attendance.Options{},
	)
	return NewRouter(svc, tel, config)
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(encoded)))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

type decodedStep struct {
	Step string          `json:"step"`
	Data json.RawMessage `json:"data"`
}

func readSteps(t *testing.T, res *httptest.ResponseRecorder) []decodedStep {
	var steps []decodedStep
	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		var step decodedStep
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &step))
		steps = append(steps, step)
	}
	require.NoError(t, scanner.Err())
	return steps
}

func stepError(t *testing.T, step decodedStep) string {
	var data struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(step.Data, &data))
	return data.Error
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())
}

func TestGetAttendance(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})

	res := postJSON(t, router, "/get-attendance", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Code)

	steps := readSteps(t, res)
	require.Len(t, steps, 2)
	require.Equal(t, "academic", steps[0].Step)
	require.Equal(t, "biometric", steps[1].Step)

	var academic []map[string]any
	require.NoError(t, json.Unmarshal(steps[0].Data, &academic))
	require.Len(t, academic, 4)
	require.Equal(t, "ACSD01", academic[0]["courseCode"])
	require.Equal(t, float64(8), academic[0]["classesToAttendFor75"])

	var biometric map[string]any
	require.NoError(t, json.Unmarshal(steps[1].Data, &biometric))
	require.Equal(t, float64(75), biometric["percentage"])

	res = httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/today-logins", nil))
	require.JSONEq(t, `{"today_logins": 1}`, res.Body.String())
}

func TestGetAttendanceForm(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})

	res := postForm(router, "/get-attendance", url.Values{
		"username": {testUsername},
		"password": {testPassword},
	})
	steps := readSteps(t, res)
	require.Len(t, steps, 2)
	require.Equal(t, "academic", steps[0].Step)
}

func TestGetAttendanceErrors(t *testing.T) {
	noData := testutil.DefaultPages()
	noData["stud_att_STD"] = []byte("<html></html>")

	table := []struct {
		name     string
		pages    map[string][]byte
		body     map[string]string
		expected string
	}{
		{
			name:     "missing password",
			pages:    testutil.DefaultPages(),
			body:     map[string]string{"username": testUsername},
			expected: "Missing username/password",
		},
		{
			name:     "invalid credentials",
			pages:    testutil.DefaultPages(),
			body:     map[string]string{"username": testUsername, "password": "wrong"},
			expected: "Invalid Credentials",
		},
		{
			name:     "no attendance data",
			pages:    noData,
			body:     map[string]string{"username": testUsername, "password": testPassword},
			expected: "No attendance data found. Not saving to database.",
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			router := newTestRouter(t, test.pages, Config{})
			res := postJSON(t, router, "/get-attendance", test.body)
			require.Equal(t, http.StatusOK, res.Code)

			steps := readSteps(t, res)
			require.Len(t, steps, 1)
			require.Equal(t, "error", steps[0].Step)
			require.Equal(t, test.expected, stepError(t, steps[0]))
		})
	}
}

func TestGetLatest(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})

	res := postJSON(t, router, "/get-latest", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Success bool `json:"success"`
		Latest  []struct {
			Period  int    `json:"period"`
			Subject string `json:"subject"`
		} `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Latest, 6)
	require.Equal(t, "Data Structures", body.Latest[0].Subject)

	res = postJSON(t, router, "/get-latest", map[string]string{})
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"success": false, "error": "Missing credentials"}`, res.Body.String())
}

func TestGetAttendanceRegister(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})

	res := postJSON(t, router, "/get-attendance-register", map[string]string{})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.JSONEq(t, `{"success": false}`, res.Body.String())

	res = postJSON(t, router, "/get-attendance-register", map[string]string{
		"username": testUsername,
		"password": "wrong",
	})
	require.Equal(t, http.StatusInternalServerError, res.Code)

	res = postJSON(t, router, "/get-attendance-register", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Success bool `json:"success"`
		Records []struct {
			Subject string `json:"subject"`
			Date    string `json:"date"`
			Period  int    `json:"period"`
			Status  string `json:"status"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Len(t, body.Records, 4)
	require.Equal(t, "21 Nov 2025", body.Records[0].Date)
}

func TestGetTimetable(t *testing.T) {
	router := newTestRouter(t, testutil.DefaultPages(), Config{})

	res := postJSON(t, router, "/get-timetable", map[string]string{
		"username": testUsername,
		"password": testPassword,
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.JSONEq(t, `{"success": false, "error": "Missing parameters"}`, res.Body.String())

	res = postJSON(t, router, "/get-timetable", map[string]string{
		"username": testUsername,
		"password": testPassword,
		"ay":       "2025-26",
	})
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Success         bool              `json:"success"`
		AcademicYear    string            `json:"academicYear"`
		Section         string            `json:"section"`
		WeeklyTimetable []json.RawMessage `json:"weeklyTimetable"`
		Subjects        []json.RawMessage `json:"subjects"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "2025-26", body.AcademicYear)
	require.Equal(t, "CSE-A#2025-26", body.Section)
	require.Len(t, body.WeeklyTimetable, 2)
	require.Len(t, body.Subjects, 2)
}

func TestGetTimetableNoSections(t *testing.T) {
	pages := testutil.DefaultPages()
	pages["TT_std:sections"] = []byte("<html></html>")
	router := newTestRouter(t, pages, Config{})

	res := postJSON(t, router, "/get-timetable", map[string]string{
		"username": testUsername,
		"password": testPassword,
		"ay":       "2025-26",
	})
	require.Equal(t, http.StatusInternalServerError, res.Code)
	require.JSONEq(t, `{"success": false, "error": "No sections found"}`, res.Body.String())
}

func TestCors(t *testing.T) {
	table := []struct {
		name     string
		config   Config
		origin   string
		expected string
	}{
		{name: "all origins", config: Config{}, origin: "https://frontend.test", expected: "*"},
		{
			name:     "listed origin",
			config:   Config{AllowOrigins: []string{"https://attendance.example.com"}},
			origin:   "https://attendance.example.com",
			expected: "https://attendance.example.com",
		},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			router := newTestRouter(t, testutil.DefaultPages(), test.config)

			req := httptest.NewRequest(http.MethodOptions, "/get-attendance", nil)
			req.Header.Set("Origin", test.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)

			require.Equal(t, http.StatusNoContent, res.Code)
			require.Equal(t, test.expected, res.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
