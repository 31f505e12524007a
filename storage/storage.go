package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNoReport is returned when no report has been stored yet.
var ErrNoReport = errors.New("no report stored")

type Storage struct {
	DB *sql.DB
}

func (s *Storage) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS report (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		status TEXT NOT NULL,
		generated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS dependency_health (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		current_version TEXT NOT NULL,
		latest_version TEXT NOT NULL DEFAULT '',
		is_deprecated BOOLEAN NOT NULL DEFAULT 0,
		is_discontinued BOOLEAN NOT NULL DEFAULT 0,
		is_outdated BOOLEAN NOT NULL DEFAULT 0,
		update_kind TEXT NOT NULL DEFAULT ''
	);`
	_, err := s.DB.ExecContext(ctx, query)
	return err
}

const insertDependencyQuery = `
  INSERT INTO dependency_health
    (name, position, current_version, latest_version, is_deprecated, is_discontinued, is_outdated, update_kind)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`

const upsertReportQuery = `
  INSERT INTO report (id, status, generated_at)
  VALUES (1, ?, ?)
  ON CONFLICT(id)
  DO UPDATE SET
    status = excluded.status,
    generated_at = excluded.generated_at;
`

const selectColumns = `
	SELECT name, current_version, latest_version, is_deprecated, is_discontinued, is_outdated, update_kind
	FROM dependency_health
`

// ReplaceReport swaps the stored report for a new one in a single
// transaction. Records keep the order they are given in.
func (s *Storage) ReplaceReport(ctx context.Context, status string, generatedAt time.Time, deps []DependencyHealth) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dependency_health`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertDependencyQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, dep := range deps {
		if _, err := stmt.ExecContext(ctx,
			dep.Name,
			i,
			dep.CurrentVersion,
			dep.LatestVersion,
			dep.IsDeprecated,
			dep.IsDiscontinued,
			dep.IsOutdated,
			dep.UpdateKind,
		); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, upsertReportQuery, status, generatedAt.UTC()); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) GetReport(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.DB.QueryRowContext(ctx,
		`SELECT status, generated_at FROM report WHERE id = 1`,
	).Scan(&snap.Status, &snap.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoReport
	}
	if err != nil {
		return Snapshot{}, err
	}

	deps, err := s.ListDependenciesFiltered(ctx, "", false)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Dependencies = deps
	return snap, nil
}

func (s *Storage) GetDependency(ctx context.Context, name string) (DependencyHealth, error) {
	rows, err := s.DB.QueryContext(ctx, selectColumns+` WHERE name = ?`, name)
	if err != nil {
		return DependencyHealth{}, err
	}
	defer rows.Close()

	list, err := scanDependencies(rows)
	if err != nil {
		return DependencyHealth{}, err
	}
	if len(list) == 0 {
		return DependencyHealth{}, sql.ErrNoRows
	}
	return list[0], nil
}

func (s *Storage) ListDependenciesFiltered(ctx context.Context, name string, flaggedOnly bool) ([]DependencyHealth, error) {
	query := selectColumns + ` WHERE 1=1`
	var args []any

	if name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	if flaggedOnly {
		query += " AND (is_deprecated OR is_discontinued OR is_outdated)"
	}

	query += " ORDER BY position"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDependencies(rows)
}

func (s *Storage) ClearReport(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dependency_health`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM report`); err != nil {
		return err
	}
	return tx.Commit()
}

func scanDependencies(rows *sql.Rows) ([]DependencyHealth, error) {
	list := []DependencyHealth{}
	for rows.Next() {
		var d DependencyHealth
		if err := rows.Scan(
			&d.Name,
			&d.CurrentVersion,
			&d.LatestVersion,
			&d.IsDeprecated,
			&d.IsDiscontinued,
			&d.IsOutdated,
			&d.UpdateKind,
		); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
