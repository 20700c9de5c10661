package extract

import (
	"attendtrack-backend/lib/htmlutil"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Section struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type TimetableDay struct {
	Day     string   `json:"day"`
	Periods []string `json:"periods"`
}

type Subject struct {
	SNo         string `json:"sno"`
	SubjectCode string `json:"subjectCode"`
	SubjectName string `json:"subjectName"`
	ShortCode   string `json:"shortCode"`
	StaffID     string `json:"staffId"`
	StaffName   string `json:"staffName"`
}

// WeeklyPeriods is the number of columns of the weekly timetable grid.
const WeeklyPeriods = 7

// Sections lists the sections offered by the section dropdown.
func (e Extractor) Sections(doc *goquery.Document) []Section {
	sections := []Section{}
	doc.Find("#sec_data option").Each(func(_ int, option *goquery.Selection) {
		value, _ := option.Attr("value")
		if value == "" {
			return
		}
		sections = append(sections, Section{
			Value: value,
			Label: strings.TrimSpace(option.Text()),
		})
	})
	return sections
}

func annotatedPeriods(cells *goquery.Selection, count int) []string {
	periods := make([]string, count)
	for i := range periods {
		periods[i] = AnnotateCell(htmlutil.RawText(cells, i+1))
	}
	return periods
}

var dayRegex = regexp.MustCompile(`(?i)^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday)`)

// WeeklyTimetable reads the weekly grid, which sits between the "DAY/PERIOD"
// heading and the subject table (headed by "S.No").
func (e Extractor) WeeklyTimetable(doc *goquery.Document) []TimetableDay {
	weekly := []TimetableDay{}
	started := false

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return true
		}

		first := htmlutil.Text(cells, 0)
		if first == "DAY/PERIOD" {
			started = true
			return true
		}
		if !started {
			return true
		}
		if first == "S.No" {
			return false
		}
		if !dayRegex.MatchString(first) {
			return true
		}

		weekly = append(weekly, TimetableDay{
			Day:     first,
			Periods: annotatedPeriods(cells, WeeklyPeriods),
		})
		return true
	})

	return weekly
}

// Subjects reads the subject table below the weekly grid.
func (e Extractor) Subjects(doc *goquery.Document) []Subject {
	subjects := []Subject{}
	capture := false
	skipped := 0

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		if htmlutil.Text(row.Find("th"), 0) == "S.No" {
			capture = true
			return
		}
		if !capture {
			return
		}

		td := row.Find("td")
		if td.Length() < 5 {
			skipped++
			return
		}
		subjects = append(subjects, Subject{
			SNo:         htmlutil.Text(td, 0),
			SubjectCode: htmlutil.Text(td, 1),
			SubjectName: htmlutil.Text(td, 2),
			ShortCode:   htmlutil.Text(td, 3),
			StaffID:     htmlutil.Text(td, 4),
			StaffName:   htmlutil.Text(td, 5),
		})
	})

	e.reportSkipped("subjects", skipped)
	return subjects
}

// DailyTimetable reads the simpler one table timetable where every row is a
// day followed by its periods.
func (e Extractor) DailyTimetable(doc *goquery.Document) []TimetableDay {
	timetable := []TimetableDay{}

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		day := htmlutil.Text(cells, 0)
		if day == "" || strings.Contains(strings.ToLower(day), "academic") {
			return
		}
		timetable = append(timetable, TimetableDay{
			Day:     day,
			Periods: annotatedPeriods(cells, PeriodsPerDay),
		})
	})

	return timetable
}
