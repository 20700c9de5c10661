// source: query.sql

package db

import (
	"context"
)

const addVisit = `-- name: AddVisit :exec
insert into site_visit(username, visited_at) values (?, ?)
`

type AddVisitParams struct {
	Username  string
	VisitedAt int64
}

func (q *Queries) AddVisit(ctx context.Context, arg AddVisitParams) error {
	_, err := q.db.ExecContext(ctx, addVisit, arg.Username, arg.VisitedAt)
	return err
}

const countVisitsSince = `-- name: CountVisitsSince :one
select count(*) from site_visit where visited_at >= ?
`

func (q *Queries) CountVisitsSince(ctx context.Context, visitedAt int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, countVisitsSince, visitedAt)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAccount = `-- name: DeleteAccount :exec
delete from account where username = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, username string) error {
	_, err := q.db.ExecContext(ctx, deleteAccount, username)
	return err
}

const getAccount = `-- name: GetAccount :one
select username, password from account where username = ?
`

func (q *Queries) GetAccount(ctx context.Context, username string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, username)
	var i Account
	err := row.Scan(&i.Username, &i.Password)
	return i, err
}

const getAllAccounts = `-- name: GetAllAccounts :many
select username, password from account order by username
`

func (q *Queries) GetAllAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, getAllAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.Username, &i.Password); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSnapshot = `-- name: GetSnapshot :one
select username, academic_json, biometric_json, fetched_at from snapshot where username = ?
`

func (q *Queries) GetSnapshot(ctx context.Context, username string) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, username)
	var i Snapshot
	err := row.Scan(
		&i.Username,
		&i.AcademicJson,
		&i.BiometricJson,
		&i.FetchedAt,
	)
	return i, err
}

const upsertAccount = `-- name: UpsertAccount :exec
insert into account(username, password) values (?, ?)
on conflict (username) do update set password = excluded.password
`

type UpsertAccountParams struct {
	Username string
	Password string
}

func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount, arg.Username, arg.Password)
	return err
}

const upsertSnapshot = `-- name: UpsertSnapshot :exec
insert into snapshot(username, academic_json, biometric_json, fetched_at)
values (?, ?, ?, ?)
on conflict (username) do update set
    academic_json = excluded.academic_json,
    biometric_json = excluded.biometric_json,
    fetched_at = excluded.fetched_at
`

type UpsertSnapshotParams struct {
	Username      string
	AcademicJson  string
	BiometricJson string
	FetchedAt     int64
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot,
		arg.Username,
		arg.AcademicJson,
		arg.BiometricJson,
		arg.FetchedAt,
	)
	return err
}
