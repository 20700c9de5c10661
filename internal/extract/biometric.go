package extract

import (
	"attendtrack-backend/lib/htmlutil"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type BiometricSummary struct {
	TotalDays    int     `json:"totalDays"`
	PresentCount int     `json:"presentCount"`
	Percentage   float64 `json:"percentage"`
}

func isPresent(cell string) bool {
	return strings.Contains(strings.ToLower(cell), "present")
}

// Biometric summarizes the daily biometric log.
//
// The first row with enough cells is not counted as a day.
func (e Extractor) Biometric(doc *goquery.Document) BiometricSummary {
	totalDays := -1
	presentCount := 0
	skipped := 0

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		td := row.Find("td")
		if td.Length() < 5 {
			skipped++
			return
		}
		totalDays++

		// institute status and university status
		if isPresent(htmlutil.RawText(td, 6)) || isPresent(htmlutil.RawText(td, 9)) {
			presentCount++
		}
	})
	e.reportSkipped("biometric", skipped)

	if totalDays <= 0 {
		return BiometricSummary{TotalDays: 0, PresentCount: presentCount}
	}
	percentage := float64(presentCount) / float64(totalDays) * 100
	return BiometricSummary{
		TotalDays:    totalDays,
		PresentCount: presentCount,
		Percentage:   math.Round(percentage*100) / 100,
	}
}
