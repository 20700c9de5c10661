package server

import (
	"attendtrack-backend/internal/attendance"
	"attendtrack-backend/internal/components/telemetry"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	report_handler_attendance = "handler.attendance"
)

type Handler struct {
	svc *attendance.Service
	tel telemetry.API
}

func RegisterRoutes(r gin.IRoutes, svc *attendance.Service, tel telemetry.API) {
	h := &Handler{svc: svc, tel: tel}

	r.POST("/get-attendance", h.GetAttendance)
	r.POST("/get-latest", h.GetLatest)
	r.POST("/get-attendance-register", h.GetAttendanceRegister)
	r.POST("/get-timetable", h.GetTimetable)
	r.GET("/today-logins", h.TodayLogins)
}

// credentialsRequest is accepted both as json and as a form.
type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	// AcademicYear is only used by the timetable.
	AcademicYear string `json:"ay" form:"ay"`
}

func bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	err := c.ShouldBind(&req)
	if err != nil {
		return credentialsRequest{}, false
	}
	return req, req.Username != "" && req.Password != ""
}

type stepLine struct {
	Step string `json:"step"`
	Data any    `json:"data"`
}

type errorData struct {
	Error string `json:"error"`
}

// writeStep writes a line of newline delimited json and flushes it.
func (h *Handler) writeStep(c *gin.Context, step string, data any) {
	line, err := json.Marshal(stepLine{Step: step, Data: data})
	if err != nil {
		h.tel.ReportBroken(report_handler_attendance, err)
		return
	}
	_, err = c.Writer.Write(append(line, '\n'))
	if err != nil {
		h.tel.ReportWarning(report_handler_attendance, err)
		return
	}
	c.Writer.Flush()
}

// GetAttendance streams the academic step and then the biometric step, any
// failure is a single error step.
func (h *Handler) GetAttendance(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	req, ok := bindCredentials(c)
	if !ok {
		h.writeStep(c, "error", errorData{Error: "Missing username/password"})
		return
	}

	report, err := h.svc.Attendance(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeStep(c, "error", errorData{Error: err.Error()})
		return
	}
	h.writeStep(c, "academic", report.Academic)
	h.writeStep(c, "biometric", report.Biometric)
}

func (h *Handler) GetLatest(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Missing credentials"})
		return
	}

	latest, err := h.svc.Latest(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "latest": latest})
}

func (h *Handler) GetAttendanceRegister(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	records, err := h.svc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}

func (h *Handler) GetTimetable(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok || req.AcademicYear == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing parameters"})
		return
	}

	timetable, err := h.svc.Timetable(c.Request.Context(), req.Username, req.Password, req.AcademicYear)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"academicYear":    timetable.AcademicYear,
		"section":         timetable.Section,
		"weeklyTimetable": timetable.Weekly,
		"subjects":        timetable.Subjects,
	})
}

func (h *Handler) TodayLogins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"today_logins": h.svc.TodayLogins(c.Request.Context())})
}
