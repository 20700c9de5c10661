package attendance

import (
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"attendtrack-backend/lib/testutil"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testUsername = "23951A0501"
	testPassword = "secret"
)

type testEnv struct {
	service  *Service
	portal   *testutil.Portal
	database *sql.DB
	clock    *chrono.FakeImpl
	tel      *telemetry.Recorder
}

func ist(t testing.TB) *time.Location {
	location, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return location
}

func newTestEnv(t *testing.T, pages map[string][]byte, opts Options) testEnv {
	portal := testutil.NewPortal(t, testUsername, testPassword, pages)
	database := testutil.OpenDB(t)
	return newTestEnvWith(t, portal, database, opts)
}

func newTestEnvWith(t *testing.T, portal *testutil.Portal, database *sql.DB, opts Options) testEnv {
	clock := chrono.NewFakeImpl(time.Date(2025, 11, 24, 10, 30, 0, 0, ist(t)))
	tel := &telemetry.Recorder{}

	client, err := samvidha.NewClient(samvidha.Options{BaseUrl: portal.URL()}, tel)
	require.NoError(t, err)
	sched := scheduler.New(scheduler.Options{Clock: clock, Tel: tel})

	return testEnv{
		service:  NewService(client, sched, database, clock, tel, opts),
		portal:   portal,
		database: database,
		clock:    clock,
		tel:      tel,
	}
}

func (e testEnv) visits(t *testing.T) int64 {
	count, err := db.New(e.database).CountVisitsSince(context.Background(), 0)
	require.NoError(t, err)
	return count
}

func TestAttendance(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})
	ctx := context.Background()

	report, err := env.service.Attendance(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.Len(t, report.Academic, 4)
	require.Equal(t, "Data Structures", report.Academic[0].Subject)
	require.Equal(t, 8, report.Academic[0].ClassesToAttend)
	require.Equal(t, 4, report.Biometric.TotalDays)
	require.Equal(t, 75.0, report.Biometric.Percentage)
	require.False(t, report.Cached)

	require.Equal(t, []string{
		"POST /pages/login/checkUser.php",
		"GET /home",
		"GET /home?action=stud_att_STD",
		"GET /home?action=std_bio",
	}, env.portal.Paths())

	snapshot, ok, err := env.service.Snapshot(ctx, testUsername)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, report.Academic, snapshot.Academic)
	require.Equal(t, report.Biometric, snapshot.Biometric)
	require.Equal(t, report.FetchedAt.Unix(), snapshot.FetchedAt.Unix())

	require.Equal(t, int64(1), env.visits(t))

	// credentials are not kept unless asked to
	accounts, err := db.New(env.database).GetAllAccounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestAttendanceInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})
	ctx := context.Background()

	_, err := env.service.Attendance(ctx, testUsername, "wrong")
	require.ErrorIs(t, err, samvidha.InvalidCredentials)
	require.Equal(t, []string{"POST /pages/login/checkUser.php"}, env.portal.Paths())

	_, ok, err := env.service.Snapshot(ctx, testUsername)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(0), env.visits(t))
}

func TestAttendanceNoData(t *testing.T) {
	pages := testutil.DefaultPages()
	pages["stud_att_STD"] = []byte("<html><body><table><tbody></tbody></table></body></html>")
	env := newTestEnv(t, pages, Options{RememberCredentials: true})
	ctx := context.Background()

	_, err := env.service.Attendance(ctx, testUsername, testPassword)
	require.ErrorIs(t, err, NoAttendanceData)

	_, ok, err := env.service.Snapshot(ctx, testUsername)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(0), env.visits(t))

	accounts, err := db.New(env.database).GetAllAccounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestAttendanceVisitExclude(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{
		VisitExclude: []string{" 23951a0501 "},
	})

	_, err := env.service.Attendance(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.Equal(t, int64(0), env.visits(t))
}

func TestAttendanceFreshness(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, testutil.DefaultPages(), Options{})
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			report, err := env.service.Attendance(ctx, testUsername, testPassword)
			require.NoError(t, err)
			require.False(t, report.Cached)
		}
		require.Equal(t, 2, env.portal.CountPath("/pages/login/checkUser.php"))
	})

	t.Run("in memory", func(t *testing.T) {
		env := newTestEnv(t, testutil.DefaultPages(), Options{FreshFor: time.Hour})
		ctx := context.Background()

		first, err := env.service.Attendance(ctx, testUsername, testPassword)
		require.NoError(t, err)
		second, err := env.service.Attendance(ctx, testUsername, testPassword)
		require.NoError(t, err)

		require.True(t, second.Cached)
		require.Equal(t, first.Academic, second.Academic)
		require.Equal(t, 1, env.portal.CountPath("/pages/login/checkUser.php"))
		require.Equal(t, int64(2), env.visits(t))

		// a different password is never served from the cache
		_, err = env.service.Attendance(ctx, testUsername, "wrong")
		require.ErrorIs(t, err, samvidha.InvalidCredentials)
		require.Equal(t, 2, env.portal.CountPath("/pages/login/checkUser.php"))
	})

	t.Run("from the store", func(t *testing.T) {
		portal := testutil.NewPortal(t, testUsername, testPassword, testutil.DefaultPages())
		database := testutil.OpenDB(t)
		opts := Options{FreshFor: time.Hour, RememberCredentials: true}
		ctx := context.Background()

		first := newTestEnvWith(t, portal, database, opts)
		_, err := first.service.Attendance(ctx, testUsername, testPassword)
		require.NoError(t, err)

		// a restarted service has an empty memory cache
		second := newTestEnvWith(t, portal, database, opts)
		report, err := second.service.Attendance(ctx, testUsername, testPassword)
		require.NoError(t, err)
		require.True(t, report.Cached)
		require.Len(t, report.Academic, 4)
		require.Equal(t, 1, portal.CountPath("/pages/login/checkUser.php"))

		// outside of the window it goes to the portal again
		third := newTestEnvWith(t, portal, database, opts)
		third.clock.Advance(2 * time.Hour)
		report, err = third.service.Attendance(ctx, testUsername, testPassword)
		require.NoError(t, err)
		require.False(t, report.Cached)
		require.Equal(t, 2, portal.CountPath("/pages/login/checkUser.php"))
	})
}

func TestLatest(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})

	slots, err := env.service.Latest(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	require.Equal(t, "Data Structures", slots[0].Subject)
	require.Equal(t, "NOT UPDATED", slots[1].Subject)
	require.Equal(t, "Database Systems", slots[2].Subject)
	require.Equal(t, "GET /home?action=course_content", env.portal.Paths()[2])
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})

	entries, err := env.service.Register(context.Background(), testUsername, testPassword)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Equal(t, "P", entries[0].Status)
	require.Equal(t, "A", entries[2].Status)
}

func TestTimetable(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})

	timetable, err := env.service.Timetable(context.Background(), testUsername, testPassword, "2025-26")
	require.NoError(t, err)
	require.Equal(t, "2025-26", timetable.AcademicYear)
	require.Equal(t, "CSE-A#2025-26", timetable.Section)
	require.Len(t, timetable.Weekly, 2)
	require.Len(t, timetable.Subjects, 2)

	require.Equal(t, []string{
		"POST /pages/login/checkUser.php",
		"GET /home",
		"POST /home?action=TT_std",
		"GET /home?action=TT_std",
		"POST /home?action=TT_std",
	}, env.portal.Paths())

	requests := env.portal.Requests()
	require.Equal(t, map[string]string{"ay": "2025-26"}, requests[2].Form)
	require.Equal(t, map[string]string{
		"ay":             "2025-26",
		"sec_data":       "CSE-A#2025-26",
		"btn_faculty_tt": "show",
	}, requests[4].Form)
}

func TestTimetableNoSections(t *testing.T) {
	pages := testutil.DefaultPages()
	pages["TT_std:sections"] = []byte(`<select id="sec_data"><option value="">-- Select --</option></select>`)
	env := newTestEnv(t, pages, Options{})

	_, err := env.service.Timetable(context.Background(), testUsername, testPassword, "2025-26")
	require.ErrorIs(t, err, NoSectionsFound)

	// nothing is requested after the section list
	require.Equal(t, []string{
		"POST /pages/login/checkUser.php",
		"GET /home",
		"POST /home?action=TT_std",
	}, env.portal.Paths())
}

func TestDailyTimetable(t *testing.T) {
	pages := testutil.DefaultPages()
	pages["TT_std:grid"] = testutil.DailyTimetableHtml
	env := newTestEnv(t, pages, Options{})

	days, err := env.service.DailyTimetable(context.Background(), testUsername, testPassword, "2025-26")
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.Equal(t, "Monday", days[0].Day)
	require.Len(t, days[0].Periods, 6)
}

func TestTodayLogins(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})
	ctx := context.Background()
	location := ist(t)
	qry := db.New(env.database)

	for _, at := range []time.Time{
		time.Date(2025, 11, 23, 23, 59, 59, 0, location),
		time.Date(2025, 11, 24, 0, 0, 0, 0, location),
		time.Date(2025, 11, 24, 9, 15, 0, 0, location),
	} {
		require.NoError(t, qry.AddVisit(ctx, db.AddVisitParams{Username: "u", VisitedAt: at.Unix()}))
	}

	require.Equal(t, int64(2), env.service.TodayLogins(ctx))
}

func TestTodayLoginsStoreError(t *testing.T) {
	env := newTestEnv(t, testutil.DefaultPages(), Options{})
	require.NoError(t, env.database.Close())

	require.Equal(t, int64(0), env.service.TodayLogins(context.Background()))
	require.Equal(t, []string{"attendance: service.today-logins"}, env.tel.Broken())
}
