package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gymflow/internal/observability"
)

// SQLDB is the database interface used by stores that open their own transactions.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery is the latency above which a statement is logged at WARN.
const DefaultSlowQuery = 50 * time.Millisecond

// Statement labels used when a query does not name one of the schema's tables.
const (
	TableOther = "other"
	TableTx    = "tx"
	VerbOther  = "other"
	VerbBegin  = "begin"
)

// schemaTables bounds the table label to tables InitDB creates.
var schemaTables = map[string]bool{
	"class":          true,
	"location":       true,
	"blocked_date":   true,
	"outbox":         true,
	"schema_version": true,
}

// Statement is what a SQL string touches, as far as logs and metrics care.
type Statement struct {
	Verb  string // select, insert, update, delete or other
	Table string // first schema table named, or TableOther
}

// ClassifyStatement reads the verb and target table from a SQL string.
// Only the leading keyword and the first FROM/INTO/UPDATE target are looked at.
func ClassifyStatement(query string) Statement {
	fields := strings.Fields(strings.ToLower(query))
	st := Statement{Verb: VerbOther, Table: TableOther}
	if len(fields) == 0 {
		return st
	}

	var marker string
	switch fields[0] {
	case "select":
		st.Verb, marker = "select", "from"
	case "delete":
		st.Verb, marker = "delete", "from"
	case "insert":
		st.Verb, marker = "insert", "into"
	case "update":
		st.Verb, marker = "update", "update"
	default:
		return st
	}
	for i, f := range fields {
		if f != marker || i+1 >= len(fields) {
			continue
		}
		next := fields[i+1]
		// UPDATE OR IGNORE t
		if next == "or" && marker == "update" && i+3 < len(fields) {
			next = fields[i+3]
		}
		if name := leadingIdent(next); schemaTables[name] {
			st.Table = name
		}
		break
	}
	return st
}

// leadingIdent returns the identifier at the start of s, so "location(id)" gives "location".
func leadingIdent(s string) string {
	s = strings.TrimLeft(s, "\"`[")
	if i := strings.IndexFunc(s, notIdent); i >= 0 {
		return s[:i]
	}
	return s
}

func notIdent(r rune) bool {
	return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
}

// TimedDB wraps a *sql.DB to log slow statements and export latency per table.
// Satisfies SQLDB so it can be passed to any store constructor.
type TimedDB struct {
	db        *sql.DB
	threshold time.Duration
	// store SQL is built from constants, so the cache stays small
	classified sync.Map // query string -> Statement
}

// TimedOption configures a TimedDB.
type TimedOption func(*TimedDB)

// WithSlowQueryThreshold overrides DefaultSlowQuery. Non-positive values are ignored.
func WithSlowQueryThreshold(d time.Duration) TimedOption {
	return func(t *TimedDB) {
		if d > 0 {
			t.threshold = d
		}
	}
}

// NewTimedDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that logs slow statements and observes every call
func NewTimedDB(db *sql.DB, opts ...TimedOption) *TimedDB {
	t := &TimedDB{db: db, threshold: DefaultSlowQuery}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Threshold reports the slow-statement cutoff in effect.
func (t *TimedDB) Threshold() time.Duration {
	return t.threshold
}

func (t *TimedDB) statement(query string) Statement {
	if v, ok := t.classified.Load(query); ok {
		return v.(Statement)
	}
	st := ClassifyStatement(query)
	t.classified.Store(query, st)
	return st
}

// observe logs slow calls and records every call's latency and outcome.
func (t *TimedDB) observe(op string, st Statement, start time.Time, err error) {
	elapsed := time.Since(start)
	attrs := []any{
		"op", op,
		"verb", st.Verb,
		"table", st.Table,
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	if elapsed >= t.threshold {
		slog.Warn("slow_query", attrs...)
	} else {
		slog.Debug("query", attrs...)
	}
	observability.ObserveQuery(op, st.Verb, st.Table, elapsed, err)
}

// ExecContext wraps sql.DB.ExecContext with timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed, latency observed under its table
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe("exec", t.statement(query), start, err)
	return result, err
}

// QueryContext wraps sql.DB.QueryContext with timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed, latency observed under its table
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("query", t.statement(query), start, err)
	return rows, err
}

// QueryRowContext wraps sql.DB.QueryRowContext with timing.
// sql.ErrNoRows only surfaces at Scan and is not counted as an error.
// PRE: ctx is valid, query is non-empty
// POST: query executed, latency observed under its table
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("query_row", t.statement(query), start, row.Err())
	return row
}

// BeginTx wraps sql.DB.BeginTx with timing. Statements run on the returned
// transaction are not observed; only opening it is.
// PRE: ctx is valid
// POST: transaction started, latency observed
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe("begin", Statement{Verb: VerbBegin, Table: TableTx}, start, err)
	return tx, err
}

// Ping verifies the database connection.
// PRE: none
// POST: returns nil if connection is alive
func (t *TimedDB) Ping() error {
	return t.db.Ping()
}
