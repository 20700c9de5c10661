// Package extract turns the html tables served by the Samvidha portal into
// plain records.
//
// The portal does not keep a consistent table shape between pages, so every
// extractor is positional and skips rows that are too short instead of
// failing. A malformed page degrades to empty (or sentinel) output.
package extract

import (
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/components/telemetry"
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed page.
type Document = goquery.Document

type Extractor struct {
	tel   telemetry.API
	clock chrono.API
}

// New creates an Extractor, `clock` decides what "today" is for LatestAttendance.
func New(tel telemetry.API, clock chrono.API) Extractor {
	return Extractor{
		tel:   telemetry.NewScopedAPI("extract", tel),
		clock: clock,
	}
}

// Parse reads an html page into a document that the extractors can be run on.
func Parse(html []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func (e Extractor) reportSkipped(table string, skipped int) {
	if skipped == 0 {
		return
	}
	e.tel.ReportDebug(fmt.Sprintf("%s: skipped short rows", table), skipped)
}
