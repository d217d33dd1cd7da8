package session

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/designsnack/leadharvest/internal/leads"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStoreConfig controls the Postgres connection pool for sessions.
type PostgresStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxHistory      int
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore writes session rows into Postgres. Jobs and metadata travel
// as JSONB so the schema stays stable as the record shape evolves.
type PostgresStore struct {
	pool       querier
	table      string
	maxHistory int
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(ctx context.Context, cfg PostgresStoreConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sessions.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "search_sessions"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newPostgresStore(pool, table, cfg.MaxHistory), nil
}

func newPostgresStore(pool querier, table string, maxHistory int) *PostgresStore {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &PostgresStore{pool: pool, table: table, maxHistory: maxHistory}
}

// Save inserts the session row.
func (s *PostgresStore) Save(ctx context.Context, sess leads.SearchSession) error {
	jobs, err := json.Marshal(sess.Jobs)
	if err != nil {
		return fmt.Errorf("encode jobs: %w", err)
	}
	metadata, err := json.Marshal(sess.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (id, search_term, created_at, total_results, jobs, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`, s.table)
	if _, err := s.pool.Exec(ctx, query,
		sess.ID, sess.SearchTerm, sess.Timestamp, sess.TotalResults, jobs, metadata); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get loads one session by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (leads.SearchSession, error) {
	query := fmt.Sprintf(
		`SELECT id, search_term, created_at, total_results, jobs, metadata
		 FROM %s WHERE id = $1`, s.table)

	var (
		sess     leads.SearchSession
		jobs     []byte
		metadata []byte
	)
	row := s.pool.QueryRow(ctx, query, id)
	if err := row.Scan(&sess.ID, &sess.SearchTerm, &sess.Timestamp,
		&sess.TotalResults, &jobs, &metadata); err != nil {
		return leads.SearchSession{}, fmt.Errorf("session not found: %s: %w", id, err)
	}
	if err := json.Unmarshal(jobs, &sess.Jobs); err != nil {
		return leads.SearchSession{}, fmt.Errorf("decode jobs: %w", err)
	}
	if err := json.Unmarshal(metadata, &sess.Metadata); err != nil {
		return leads.SearchSession{}, fmt.Errorf("decode metadata: %w", err)
	}
	return sess, nil
}

// History returns the most recent session summaries, newest first.
func (s *PostgresStore) History(ctx context.Context) ([]leads.SessionSummary, error) {
	query := fmt.Sprintf(
		`SELECT id, search_term, created_at, total_results
		 FROM %s ORDER BY created_at DESC LIMIT %d`, s.table, s.maxHistory)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var summaries []leads.SessionSummary
	for rows.Next() {
		var summary leads.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.SearchTerm,
			&summary.Timestamp, &summary.ResultCount); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return summaries, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
