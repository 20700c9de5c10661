package extract

import (
	"attendtrack-backend/lib/htmlutil"
	"math"

	"github.com/PuerkitoBio/goquery"
)

// TargetPercentage is the attendance the institute requires per course.
const TargetPercentage = 75

type AcademicRecord struct {
	SNo            string  `json:"sno"`
	CourseCode     string  `json:"courseCode"`
	Subject        string  `json:"subject"`
	CourseType     string  `json:"courseType"`
	CourseCategory string  `json:"courseCategory"`
	Conducted      float64 `json:"total"`
	Attended       float64 `json:"attended"`
	Percentage     float64 `json:"percentage"`
	Status         string  `json:"status"`
	// ClassesToAttend is how many classes in a row are needed to reach the target.
	ClassesToAttend int `json:"classesToAttendFor75"`
	// ClassesCanBunk is how many classes can be missed while staying above the target.
	ClassesCanBunk int `json:"classesCanBunk"`
}

// classesToAttend solves (attended + x) / (conducted + x) >= 0.75 for x.
func classesToAttend(conducted, attended float64) int {
	const target = TargetPercentage / 100.0
	return max(0, int(math.Ceil((target*conducted-attended)/(1-target))))
}

// classesCanBunk solves attended / (conducted + x) >= 0.75 for x.
func classesCanBunk(conducted, attended float64) int {
	const target = TargetPercentage / 100.0
	return max(0, int(math.Floor((attended-target*conducted)/target)))
}

// Academic extracts the per course attendance summary.
func (e Extractor) Academic(doc *goquery.Document) []AcademicRecord {
	records := []AcademicRecord{}
	skipped := 0

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		td := row.Find("td")
		if td.Length() < 9 {
			skipped++
			return
		}

		conducted, _ := parseNumber(htmlutil.RawText(td, 5))
		attended, _ := parseNumber(htmlutil.RawText(td, 6))
		percentage, percentageOk := parseNumber(htmlutil.RawText(td, 7))

		record := AcademicRecord{
			SNo:            htmlutil.Text(td, 0),
			CourseCode:     htmlutil.Text(td, 1),
			Subject:        htmlutil.Text(td, 2),
			CourseType:     htmlutil.Text(td, 3),
			CourseCategory: htmlutil.Text(td, 4),
			Conducted:      conducted,
			Attended:       attended,
			Percentage:     percentage,
			Status:         htmlutil.Text(td, 8),
		}
		if percentageOk {
			if percentage < TargetPercentage {
				record.ClassesToAttend = classesToAttend(conducted, attended)
			}
			if percentage > TargetPercentage {
				record.ClassesCanBunk = classesCanBunk(conducted, attended)
			}
		}
		records = append(records, record)
	})

	e.reportSkipped("academic", skipped)
	return records
}
