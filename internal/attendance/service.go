// Package attendance puts the portal client, the extractors and the scheduler
// together into the operations the api serves.
//
// Every operation logs in, fetches and extracts inside a single scheduler job,
// so that a session never outlives the job that created it.
package attendance

import (
	"attendtrack-backend/internal/components/assert"
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/extract"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/lib/textutil"
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	report_service_attendance   = "service.attendance"
	report_service_persist      = "service.persist"
	report_service_fresh        = "service.fresh"
	report_service_today_logins = "service.today-logins"
	report_service_refresh      = "service.refresh"
)

var (
	// NoSectionsFound is returned when the student has no section for the
	// requested academic year.
	NoSectionsFound = fmt.Errorf("No sections found")
	// NoAttendanceData is returned when the academic summary is empty, such a
	// result is never saved.
	NoAttendanceData = fmt.Errorf("No attendance data found. Not saving to database.")
)

type Report struct {
	Academic  []extract.AcademicRecord `json:"academic"`
	Biometric extract.BiometricSummary `json:"biometric"`
	FetchedAt time.Time                `json:"fetchedAt"`
	// Cached is set when the report was served without going to the portal.
	Cached bool `json:"cached"`
}

type Timetable struct {
	AcademicYear string                 `json:"academicYear"`
	Section      string                 `json:"section"`
	Weekly       []extract.TimetableDay `json:"weeklyTimetable"`
	Subjects     []extract.Subject      `json:"subjects"`
}

type Options struct {
	// FreshFor is how long a fetched report is served again for the same
	// credentials, 0 always goes to the portal.
	FreshFor time.Duration
	// RememberCredentials keeps the credentials of every successful fetch so
	// that the refresh daemon can fetch them again.
	RememberCredentials bool
	// VisitExclude are usernames that are not counted as site visits.
	VisitExclude []string
}

type Service struct {
	client    *samvidha.Client
	scheduler *scheduler.Scheduler
	extract   extract.Extractor
	qry       *db.Queries
	makeTx    db.MakeTx
	fresh     *freshCache
	clock     chrono.API
	tel       telemetry.API
	opts      Options
}

func NewService(
	client *samvidha.Client,
	sched *scheduler.Scheduler,
	database *sql.DB,
	clock chrono.API,
	tel telemetry.API,
	opts Options,
) *Service {
	assert.NotNil(client)
	assert.NotNil(sched)
	assert.NotNil(database)

	return &Service{
		client:    client,
		scheduler: sched,
		extract:   extract.New(tel, clock),
		qry:       db.New(database),
		makeTx:    db.NewMakeTx(database),
		fresh:     newFreshCache(opts.FreshFor),
		clock:     clock,
		tel:       telemetry.NewScopedAPI("attendance", tel),
		opts:      opts,
	}
}

func (s *Service) fetchPage(
	ctx context.Context,
	fetch func(context.Context, samvidha.Credential) ([]byte, error),
	credential samvidha.Credential,
) (*extract.Document, error) {
	html, err := fetch(ctx, credential)
	if err != nil {
		return nil, err
	}
	return extract.Parse(html)
}

func (s *Service) scrapeAttendance(ctx context.Context, username, password string) (Report, error) {
	credential, err := s.client.AcquireSession(ctx, username, password)
	if err != nil {
		return Report{}, err
	}

	academicDoc, err := s.fetchPage(ctx, s.client.AcademicPage, credential)
	if err != nil {
		return Report{}, fmt.Errorf("academic page: %w", err)
	}
	biometricDoc, err := s.fetchPage(ctx, s.client.BiometricPage, credential)
	if err != nil {
		return Report{}, fmt.Errorf("biometric page: %w", err)
	}

	return Report{
		Academic:  s.extract.Academic(academicDoc),
		Biometric: s.extract.Biometric(biometricDoc),
		FetchedAt: s.clock.Now(),
	}, nil
}

// Attendance returns the academic summary and the biometric summary of a
// student, the result is saved and counted as a site visit.
func (s *Service) Attendance(ctx context.Context, username, password string) (Report, error) {
	report, ok := s.freshReport(ctx, username, password)
	if ok {
		s.recordVisit(ctx, username)
		return report, nil
	}

	report, err := scheduler.Do(ctx, s.scheduler, func(ctx context.Context) (Report, error) {
		return s.scrapeAttendance(ctx, username, password)
	})
	if err != nil {
		return Report{}, err
	}
	if len(report.Academic) == 0 {
		s.tel.ReportWarning(report_service_attendance, NoAttendanceData, username)
		return Report{}, NoAttendanceData
	}

	err = s.persist(ctx, username, password, report, true)
	if err != nil {
		s.tel.ReportBroken(report_service_persist, err, username)
	}
	s.fresh.Put(username, password, report)
	return report, nil
}

// Latest returns today's attendance for every period.
func (s *Service) Latest(ctx context.Context, username, password string) ([]extract.PeriodSlot, error) {
	return scheduler.Do(ctx, s.scheduler, func(ctx context.Context) ([]extract.PeriodSlot, error) {
		credential, err := s.client.AcquireSession(ctx, username, password)
		if err != nil {
			return nil, err
		}
		doc, err := s.fetchPage(ctx, s.client.CourseContentPage, credential)
		if err != nil {
			return nil, fmt.Errorf("course content page: %w", err)
		}
		return s.extract.LatestAttendance(doc), nil
	})
}

// Register returns every attendance entry of the student.
func (s *Service) Register(ctx context.Context, username, password string) ([]extract.RegisterEntry, error) {
	return scheduler.Do(ctx, s.scheduler, func(ctx context.Context) ([]extract.RegisterEntry, error) {
		credential, err := s.client.AcquireSession(ctx, username, password)
		if err != nil {
			return nil, err
		}
		doc, err := s.fetchPage(ctx, s.client.CourseContentPage, credential)
		if err != nil {
			return nil, fmt.Errorf("course content page: %w", err)
		}
		return s.extract.Register(doc), nil
	})
}

// timetablePage finds the first section of the student for the academic year
// and fetches its timetable.
func (s *Service) timetablePage(ctx context.Context, username, password, academicYear string) (string, *extract.Document, error) {
	credential, err := s.client.AcquireSession(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	sectionsDoc, err := s.fetchPage(ctx, func(ctx context.Context, credential samvidha.Credential) ([]byte, error) {
		return s.client.SectionsPage(ctx, credential, academicYear)
	}, credential)
	if err != nil {
		return "", nil, fmt.Errorf("sections page: %w", err)
	}
	sections := s.extract.Sections(sectionsDoc)
	if len(sections) == 0 {
		return "", nil, NoSectionsFound
	}
	section := sections[0].Value

	doc, err := s.fetchPage(ctx, func(ctx context.Context, credential samvidha.Credential) ([]byte, error) {
		return s.client.TimetablePage(ctx, credential, academicYear, section)
	}, credential)
	if err != nil {
		return "", nil, fmt.Errorf("timetable page: %w", err)
	}
	return section, doc, nil
}

// Timetable returns the weekly timetable and the subjects of the student's
// first section in the academic year.
func (s *Service) Timetable(ctx context.Context, username, password, academicYear string) (Timetable, error) {
	return scheduler.Do(ctx, s.scheduler, func(ctx context.Context) (Timetable, error) {
		section, doc, err := s.timetablePage(ctx, username, password, academicYear)
		if err != nil {
			return Timetable{}, err
		}
		return Timetable{
			AcademicYear: academicYear,
			Section:      section,
			Weekly:       s.extract.WeeklyTimetable(doc),
			Subjects:     s.extract.Subjects(doc),
		}, nil
	})
}

// DailyTimetable reads the same timetable page as a plain day by day table.
func (s *Service) DailyTimetable(ctx context.Context, username, password, academicYear string) ([]extract.TimetableDay, error) {
	return scheduler.Do(ctx, s.scheduler, func(ctx context.Context) ([]extract.TimetableDay, error) {
		_, doc, err := s.timetablePage(ctx, username, password, academicYear)
		if err != nil {
			return nil, err
		}
		return s.extract.DailyTimetable(doc), nil
	})
}

// TodayLogins counts the site visits since midnight in the portal's timezone,
// it is 0 if the store cannot be read.
func (s *Service) TodayLogins(ctx context.Context) int64 {
	now := s.clock.Now().In(s.clock.Location())
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.clock.Location())

	count, err := s.qry.CountVisitsSince(ctx, midnight.Unix())
	if err != nil {
		s.tel.ReportBroken(report_service_today_logins, err)
		return 0
	}
	return count
}

func (s *Service) visitExcluded(username string) bool {
	for _, excluded := range s.opts.VisitExclude {
		if textutil.NormalizeName(excluded) == textutil.NormalizeName(username) {
			return true
		}
	}
	return false
}

func (s *Service) recordVisit(ctx context.Context, username string) {
	if s.visitExcluded(username) {
		return
	}
	err := s.qry.AddVisit(ctx, db.AddVisitParams{
		Username:  username,
		VisitedAt: s.clock.Now().Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_service_persist, fmt.Errorf("add visit: %w", err), username)
	}
}
