package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor defines the contract required by repositories for executing SQL queries.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// DefaultSlowQuery is the duration above which a statement is logged at warn.
const DefaultSlowQuery = 250 * time.Millisecond

// pgxConn is the subset of *pgxpool.Pool the runner needs.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLRunner strips the audit marker from sqlinline queries, runs them and logs
// each statement by marker with its duration.
type SQLRunner struct {
	conn      pgxConn
	logger    zerolog.Logger
	slowQuery time.Duration
	now       func() time.Time
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return newSQLRunner(pool, logger)
}

func newSQLRunner(conn pgxConn, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{
		conn:      conn,
		logger:    logger.With().Str("component", "sql").Logger(),
		slowQuery: DefaultSlowQuery,
		now:       time.Now,
	}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := r.now()
	tag, err := r.conn.Exec(ctx, trimmed, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("marker", marker).Msg("exec failed")
		return tag, err
	}
	r.event(marker, start).Int64("rows", tag.RowsAffected()).Msg("exec")
	return tag, nil
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	row := r.conn.QueryRow(ctx, trimmed, args...)
	return loggingRow{row: row, runner: r, marker: marker, start: r.now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	start := r.now()
	rows, err := r.conn.Query(ctx, trimmed, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("marker", marker).Msg("query failed")
		return nil, err
	}
	r.event(marker, start).Msg("query")
	return rows, nil
}

// event starts a debug entry, promoted to warn when the statement was slow.
func (r *SQLRunner) event(marker string, start time.Time) *zerolog.Event {
	took := r.now().Sub(start)
	ev := r.logger.Debug()
	if r.slowQuery > 0 && took >= r.slowQuery {
		ev = r.logger.Warn().Bool("slow", true)
	}
	return ev.Str("marker", marker).Dur("duration", took)
}

type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

// Scan logs everything except pgx.ErrNoRows, which callers treat as a normal miss.
func (l loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	if err != nil && !IsNoRows(err) {
		l.runner.logger.Error().Err(err).Str("marker", l.marker).Msg("scan failed")
		return err
	}
	l.runner.event(l.marker, l.start).Bool("found", err == nil).Msg("query_row")
	return err
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", "", errors.New("empty query")
	}
	lines := strings.Split(trimmed, "\n")
	markerLine := strings.TrimSpace(lines[0])
	if !markerRegexp.MatchString(markerLine) {
		return "", "", errors.New("sql marker missing or invalid")
	}
	return strings.TrimSpace(strings.TrimPrefix(markerLine, "--sql ")), strings.Join(lines[1:], "\n"), nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
