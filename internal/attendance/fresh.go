package attendance

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type freshEntry struct {
	passwordHash [sha256.Size]byte
	report       Report
}

// freshCache remembers recent reports in memory so that a student refreshing
// the page does not cause another scrape, a nil cache never hits.
type freshCache struct {
	cache *expirable.LRU[string, freshEntry]
}

func newFreshCache(window time.Duration) *freshCache {
	if window <= 0 {
		return nil
	}
	return &freshCache{
		cache: expirable.NewLRU[string, freshEntry](2048, nil, window),
	}
}

func (c *freshCache) Get(username, password string) (Report, bool) {
	if c == nil {
		return Report{}, false
	}
	entry, hit := c.cache.Get(username)
	if !hit {
		return Report{}, false
	}
	hash := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(hash[:], entry.passwordHash[:]) != 1 {
		return Report{}, false
	}
	report := entry.report
	report.Cached = true
	return report, true
}

func (c *freshCache) Put(username, password string, report Report) {
	if c == nil {
		return
	}
	c.cache.Add(username, freshEntry{
		passwordHash: sha256.Sum256([]byte(password)),
		report:       report,
	})
}

// freshReport finds a report fetched within the freshness window for the
// same credentials, first in memory and then in the store (only possible when
// credentials are remembered).
func (s *Service) freshReport(ctx context.Context, username, password string) (Report, bool) {
	if s.opts.FreshFor <= 0 {
		return Report{}, false
	}
	report, ok := s.fresh.Get(username, password)
	if ok {
		return report, true
	}
	if !s.opts.RememberCredentials {
		return Report{}, false
	}

	account, err := s.qry.GetAccount(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, false
	}
	if err != nil {
		s.tel.ReportBroken(report_service_fresh, err, username)
		return Report{}, false
	}
	if subtle.ConstantTimeCompare([]byte(account.Password), []byte(password)) != 1 {
		return Report{}, false
	}

	report, ok, err = s.Snapshot(ctx, username)
	if err != nil {
		s.tel.ReportBroken(report_service_fresh, err, username)
		return Report{}, false
	}
	if !ok || s.clock.Now().Sub(report.FetchedAt) >= s.opts.FreshFor {
		return Report{}, false
	}
	s.fresh.Put(username, password, report)
	return report, true
}
