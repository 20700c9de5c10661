package attendance

import (
	"attendtrack-backend/internal/db"
	"attendtrack-backend/internal/extract"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// persist saves the report as the student's latest snapshot, in the same
// transaction it remembers the credentials (if enabled) and counts a visit.
func (s *Service) persist(ctx context.Context, username, password string, report Report, visit bool) error {
	academic, err := json.Marshal(report.Academic)
	if err != nil {
		return fmt.Errorf("marshal academic: %w", err)
	}
	biometric, err := json.Marshal(report.Biometric)
	if err != nil {
		return fmt.Errorf("marshal biometric: %w", err)
	}

	tx, discard, commit, err := s.makeTx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer discard()

	err = tx.UpsertSnapshot(ctx, db.UpsertSnapshotParams{
		Username:      username,
		AcademicJson:  string(academic),
		BiometricJson: string(biometric),
		FetchedAt:     report.FetchedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	if s.opts.RememberCredentials {
		err = tx.UpsertAccount(ctx, db.UpsertAccountParams{
			Username: username,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}
	}

	if visit && !s.visitExcluded(username) {
		err = tx.AddVisit(ctx, db.AddVisitParams{
			Username:  username,
			VisitedAt: s.clock.Now().Unix(),
		})
		if err != nil {
			return fmt.Errorf("add visit: %w", err)
		}
	}

	return commit()
}

// Snapshot returns the last saved report of a student.
func (s *Service) Snapshot(ctx context.Context, username string) (Report, bool, error) {
	row, err := s.qry.GetSnapshot(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, false, nil
	}
	if err != nil {
		return Report{}, false, err
	}

	report := Report{
		FetchedAt: time.Unix(row.FetchedAt, 0).In(s.clock.Location()),
		Cached:    true,
	}
	err = json.Unmarshal([]byte(row.AcademicJson), &report.Academic)
	if err != nil {
		return Report{}, false, fmt.Errorf("unmarshal academic: %w", err)
	}
	err = json.Unmarshal([]byte(row.BiometricJson), &report.Biometric)
	if err != nil {
		return Report{}, false, fmt.Errorf("unmarshal biometric: %w", err)
	}
	if report.Academic == nil {
		report.Academic = []extract.AcademicRecord{}
	}
	return report, true, nil
}
