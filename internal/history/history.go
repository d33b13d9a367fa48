// Package history records an audit trail of run_symbol invocations to a
// SQL database. It is an observability convenience, not part of the
// interpreter's correctness contract: a failed write is logged and
// otherwise ignored.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// RunRecord is one completed run_symbol invocation.
type RunRecord struct {
	RunID      string
	VMID       string
	Symbol     string
	Status     string
	StartedAt  time.Time
	Duration   time.Duration
	RobotX     int
	RobotY     int
	RobotD     int
}

// Store is a driver-agnostic audit log over database/sql. The default
// driver is "sqlite" (modernc.org/sqlite, pure Go); "mysql", "postgres"
// and "sqlserver" (go-mssqldb) are registered by driver name, same as
// any other ANSI-SQL driver under database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to driver/dsn and ensures the run_history table exists.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "history: open %s", driver)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "history: ping %s", driver)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `CREATE TABLE IF NOT EXISTS run_history (
		run_id TEXT NOT NULL,
		vm_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		robot_x INTEGER NOT NULL,
		robot_y INTEGER NOT NULL,
		robot_d INTEGER NOT NULL
	)`
	_, err := s.db.Exec(ddl)
	return errors.Wrap(err, "history: migrate")
}

// Record inserts one audit row. Callers treat a returned error as
// non-fatal to the run that produced the record.
func (s *Store) Record(ctx context.Context, r RunRecord) error {
	const q = `INSERT INTO run_history
		(run_id, vm_id, symbol, status, started_at, duration_ms, robot_x, robot_y, robot_d)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, rebind(s.driver, q),
		r.RunID, r.VMID, r.Symbol, r.Status,
		// Fixed-width fraction so that text order in started_at is time order.
		r.StartedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
		r.Duration.Milliseconds(),
		r.RobotX, r.RobotY, r.RobotD,
	)
	return errors.Wrapf(err, "history: record run %s (%s)", r.RunID, humanize.Comma(r.Duration.Milliseconds()))
}

// Recent returns up to limit most recent records for vmID, newest first.
func (s *Store) Recent(ctx context.Context, vmID string, limit int) ([]RunRecord, error) {
	const q = `SELECT run_id, vm_id, symbol, status, started_at, duration_ms, robot_x, robot_y, robot_d
		FROM run_history WHERE vm_id = ? ORDER BY started_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, q), vmID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "history: query recent")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var durMs int64
		if err := rows.Scan(&r.RunID, &r.VMID, &r.Symbol, &r.Status, &started, &durMs, &r.RobotX, &r.RobotY, &r.RobotD); err != nil {
			return nil, errors.Wrap(err, "history: scan")
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "history: rows")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders to "$1"-style ones for postgres, which
// database/sql does not do automatically.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, []byte(fmt.Sprintf("$%d", n))...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
