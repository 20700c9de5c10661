package extract

import (
	"attendtrack-backend/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PeriodsPerDay is the number of teaching periods in a day.
const PeriodsPerDay = 6

const notUpdated = "NOT UPDATED"

// PeriodSlot is what happened in one period of today.
type PeriodSlot struct {
	Period   int    `json:"period"`
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	DateNorm string `json:"dateNorm"`
}

func emptySlot(period int) PeriodSlot {
	return PeriodSlot{
		Period:   period,
		Subject:  notUpdated,
		Topic:    "-",
		Date:     "-",
		Status:   notUpdated,
		DateNorm: "-",
	}
}

type RegisterEntry struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Period  int    `json:"period"`
	// Status is either "P" or "A".
	Status string `json:"status"`
}

// courseRow is a single class from the course content page with the subject
// of the banner above it.
type courseRow struct {
	subject string
	date    string
	period  string
	topic   string
	status  string
}

// courseFold is the state carried across the rows of the course content page.
type courseFold struct {
	subject string
	rows    []courseRow
	skipped int
}

const subjectBannerSelector = "th.bg-pink, th[class*='bg-pink']"

// bannerSubject reads "CS301 - Data Structures - A" as "Data Structures".
func bannerSubject(text string) string {
	parts := strings.Split(text, "-")
	if len(parts) > 1 {
		subject := strings.TrimSpace(parts[1])
		if subject != "" {
			return subject
		}
	}
	return text
}

// subjectFoldStep consumes one row: a banner changes the current subject, a
// class row is recorded under it.
func subjectFoldStep(state courseFold, row *goquery.Selection) courseFold {
	banner := row.Find(subjectBannerSelector)
	if banner.Length() > 0 {
		state.subject = bannerSubject(strings.TrimSpace(banner.Text()))
		return state
	}

	td := row.Find("td")
	if td.Length() < 5 {
		if td.Length() > 0 {
			state.skipped++
		}
		return state
	}
	state.rows = append(state.rows, courseRow{
		subject: state.subject,
		date:    htmlutil.RawText(td, 1),
		period:  htmlutil.RawText(td, 2),
		topic:   htmlutil.Text(td, 3),
		status:  htmlutil.Text(td, 4),
	})
	return state
}

// subjectFold walks every row of the page in document order, so that each
// class row gets the subject of the closest banner above it.
func subjectFold(doc *goquery.Document) courseFold {
	var state courseFold
	rows := doc.Find("tr")
	for i := range rows.Nodes {
		state = subjectFoldStep(state, rows.Eq(i))
	}
	return state
}

// LatestAttendance returns what was marked today for each of the periods in
// order. A period without a record for today is marked as "NOT UPDATED".
func (e Extractor) LatestAttendance(doc *goquery.Document) []PeriodSlot {
	today := DateKey(FormatPortalDate(e.clock.Now(), e.clock.Location()))

	state := subjectFold(doc)
	e.reportSkipped("latest-attendance", state.skipped)

	var slots [PeriodsPerDay + 1]*PeriodSlot
	for _, row := range state.rows {
		period, ok := parsePeriod(row.period)
		if !ok {
			continue
		}
		date := strings.TrimSpace(row.date)
		if DateKey(date) != today {
			continue
		}
		slots[period] = &PeriodSlot{
			Period:   period,
			Subject:  row.subject,
			Topic:    row.topic,
			Date:     date,
			Status:   row.status,
			DateNorm: DateKey(date),
		}
	}

	out := make([]PeriodSlot, PeriodsPerDay)
	for period := 1; period <= PeriodsPerDay; period++ {
		if slots[period] == nil {
			out[period-1] = emptySlot(period)
			continue
		}
		out[period-1] = *slots[period]
	}
	return out
}

// Register returns every attendance entry on the course content page.
func (e Extractor) Register(doc *goquery.Document) []RegisterEntry {
	state := subjectFold(doc)
	e.reportSkipped("register", state.skipped)

	entries := []RegisterEntry{}
	for _, row := range state.rows {
		date := NormalizeDate(row.date)
		period, ok := parsePeriod(row.period)
		if date == "" || !ok {
			continue
		}

		status := "A"
		if strings.Contains(strings.ToUpper(row.status), "PRESENT") {
			status = "P"
		}
		entries = append(entries, RegisterEntry{
			Subject: row.subject,
			Date:    date,
			Period:  period,
			Status:  status,
		})
	}
	return entries
}
