package attendance

import (
	"attendtrack-backend/internal/components/chrono"
	"attendtrack-backend/internal/samvidha"
	"attendtrack-backend/internal/scheduler"
	"context"
	"errors"
	"fmt"
)

type RefreshSummary struct {
	Processed int
	Succeeded int
	Skipped   int
}

// RefreshAll fetches the attendance of every remembered account again, one
// scheduler job per account. A failing account is skipped.
func (s *Service) RefreshAll(ctx context.Context) (RefreshSummary, error) {
	accounts, err := s.qry.GetAllAccounts(ctx)
	if err != nil {
		return RefreshSummary{}, fmt.Errorf("get accounts: %w", err)
	}

	var summary RefreshSummary
	for _, account := range accounts {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Processed++

		if account.Username == "" || account.Password == "" {
			summary.Skipped++
			continue
		}

		report, err := scheduler.Do(ctx, s.scheduler, func(ctx context.Context) (Report, error) {
			return s.scrapeAttendance(ctx, account.Username, account.Password)
		})
		if errors.Is(err, samvidha.InvalidCredentials) {
			s.tel.ReportWarning(report_service_refresh, "remembered credentials were rejected", account.Username)
			summary.Skipped++
			continue
		}
		if err != nil {
			s.tel.ReportBroken(report_service_refresh, err, account.Username)
			summary.Skipped++
			continue
		}
		if len(report.Academic) == 0 {
			summary.Skipped++
			continue
		}

		err = s.persist(ctx, account.Username, account.Password, report, false)
		if err != nil {
			s.tel.ReportBroken(report_service_persist, err, account.Username)
			summary.Skipped++
			continue
		}
		s.fresh.Put(account.Username, account.Password, report)
		summary.Succeeded++
	}

	s.tel.ReportCount("refresh.succeeded", int64(summary.Succeeded))
	s.tel.ReportCount("refresh.skipped", int64(summary.Skipped))
	return summary, nil
}

// StartRefreshDaemon refreshes every remembered account on the cron schedule
// until ctx is done.
func (s *Service) StartRefreshDaemon(ctx context.Context, cron chrono.CronAPI, spec string) error {
	return cron.Cron(spec, func() {
		if ctx.Err() != nil {
			return
		}
		summary, err := s.RefreshAll(ctx)
		if err != nil {
			s.tel.ReportBroken(report_service_refresh, err)
			return
		}
		s.tel.ReportDebug(
			"refresh finished",
			"processed", summary.Processed,
			"succeeded", summary.Succeeded,
			"skipped", summary.Skipped,
		)
	})
}
