package testutil

import _ "embed"

// Pages saved from the portal (trimmed down, names changed) for a student on
// 24 Nov, 2025.
var (
	//go:embed testdata/academic.html
	AcademicHtml []byte
	//go:embed testdata/biometric.html
	BiometricHtml []byte
	//go:embed testdata/course_content.html
	CourseContentHtml []byte
	//go:embed testdata/sections.html
	SectionsHtml []byte
	//go:embed testdata/timetable.html
	TimetableHtml []byte
	//go:embed testdata/daily_timetable.html
	DailyTimetableHtml []byte
)
