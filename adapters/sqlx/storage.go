// Package sqlx implements the engine storage port on a SQL database through
// jmoiron/sqlx. Postgres and MySQL are supported. Histories keep whole-
// document write semantics: PutUserHistory replaces all of a user's rows in
// one transaction.
package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"fitcompkit/core"
)

// Driver identifies the SQL dialect in use.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements engine.Storage on SQL.
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies connectivity.
func New(cfg Config) (*Store, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported sql driver: %s", cfg.Driver)
	}
	db, err := sqlx.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB wraps an existing connection (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_stats (
			user_id VARCHAR(64) NOT NULL,
			day CHAR(10) NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			body_fat DOUBLE PRECISION NOT NULL,
			muscle_mass DOUBLE PRECISION NOT NULL,
			bmr DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (user_id, day)
		)`,
		`CREATE TABLE IF NOT EXISTS competitions (
			name VARCHAR(128) PRIMARY KEY,
			start_date CHAR(10) NOT NULL,
			end_date CHAR(10) NOT NULL,
			creator VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS competition_participants (
			competition VARCHAR(128) NOT NULL,
			position INT NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			body_fat DOUBLE PRECISION NOT NULL,
			muscle_mass DOUBLE PRECISION NOT NULL,
			bmr DOUBLE PRECISION NOT NULL,
			joined_at CHAR(10) NOT NULL,
			PRIMARY KEY (competition, user_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

type statsRow struct {
	Day        string  `db:"day"`
	Weight     float64 `db:"weight"`
	BodyFat    float64 `db:"body_fat"`
	MuscleMass float64 `db:"muscle_mass"`
	BMR        float64 `db:"bmr"`
}

func (s *Store) UserHistory(ctx context.Context, user core.UserID) (core.History, error) {
	var rows []statsRow
	query := s.db.Rebind(`SELECT day, weight, body_fat, muscle_mass, bmr FROM daily_stats WHERE user_id = ?`)
	if err := s.db.SelectContext(ctx, &rows, query, user); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	h := make(core.History, len(rows))
	for _, r := range rows {
		h[core.Date(r.Day)] = core.Measurement{
			Weight:     r.Weight,
			BodyFat:    r.BodyFat,
			MuscleMass: r.MuscleMass,
			BMR:        r.BMR,
		}
	}
	return h, nil
}

func (s *Store) PutUserHistory(ctx context.Context, user core.UserID, h core.History) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	del := tx.Rebind(`DELETE FROM daily_stats WHERE user_id = ?`)
	if _, err := tx.ExecContext(ctx, del, user); err != nil {
		return fmt.Errorf("failed to replace history: %w", err)
	}
	ins := tx.Rebind(`INSERT INTO daily_stats (user_id, day, weight, body_fat, muscle_mass, bmr) VALUES (?, ?, ?, ?, ?, ?)`)
	for _, rec := range h.Records() {
		m := rec.Measurement
		if _, err := tx.ExecContext(ctx, ins, user, string(rec.Date), m.Weight, m.BodyFat, m.MuscleMass, m.BMR); err != nil {
			return fmt.Errorf("failed to write history row: %w", err)
		}
	}
	return tx.Commit()
}

type competitionRow struct {
	Name      string `db:"name"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	Creator   string `db:"creator"`
}

type participantRow struct {
	UserID     string  `db:"user_id"`
	Weight     float64 `db:"weight"`
	BodyFat    float64 `db:"body_fat"`
	MuscleMass float64 `db:"muscle_mass"`
	BMR        float64 `db:"bmr"`
	JoinedAt   string  `db:"joined_at"`
}

func (s *Store) Competition(ctx context.Context, name string) (core.Competition, error) {
	var row competitionRow
	query := s.db.Rebind(`SELECT name, start_date, end_date, creator FROM competitions WHERE name = ?`)
	if err := s.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Competition{}, core.ErrNotFound
		}
		return core.Competition{}, fmt.Errorf("failed to read competition: %w", err)
	}

	var parts []participantRow
	pq := s.db.Rebind(`SELECT user_id, weight, body_fat, muscle_mass, bmr, joined_at FROM competition_participants WHERE competition = ? ORDER BY position`)
	if err := s.db.SelectContext(ctx, &parts, pq, name); err != nil {
		return core.Competition{}, fmt.Errorf("failed to read participants: %w", err)
	}

	comp := core.Competition{
		Name:      row.Name,
		StartDate: core.Date(row.StartDate),
		EndDate:   core.Date(row.EndDate),
		Creator:   core.UserID(row.Creator),
	}
	for _, p := range parts {
		comp.Participants = append(comp.Participants, core.Participant{
			UserID: core.UserID(p.UserID),
			Baseline: core.Measurement{
				Weight:     p.Weight,
				BodyFat:    p.BodyFat,
				MuscleMass: p.MuscleMass,
				BMR:        p.BMR,
			},
			JoinedAt: core.Date(p.JoinedAt),
		})
	}
	return comp, nil
}

func (s *Store) PutCompetition(ctx context.Context, c core.Competition) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	delComp := tx.Rebind(`DELETE FROM competitions WHERE name = ?`)
	if _, err := tx.ExecContext(ctx, delComp, c.Name); err != nil {
		return fmt.Errorf("failed to replace competition: %w", err)
	}
	delParts := tx.Rebind(`DELETE FROM competition_participants WHERE competition = ?`)
	if _, err := tx.ExecContext(ctx, delParts, c.Name); err != nil {
		return fmt.Errorf("failed to replace participants: %w", err)
	}

	insComp := tx.Rebind(`INSERT INTO competitions (name, start_date, end_date, creator) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insComp, c.Name, string(c.StartDate), string(c.EndDate), c.Creator); err != nil {
		return fmt.Errorf("failed to write competition: %w", err)
	}
	insPart := tx.Rebind(`INSERT INTO competition_participants (competition, position, user_id, weight, body_fat, muscle_mass, bmr, joined_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, p := range c.Participants {
		b := p.Baseline
		if _, err := tx.ExecContext(ctx, insPart, c.Name, i, p.UserID, b.Weight, b.BodyFat, b.MuscleMass, b.BMR, string(p.JoinedAt)); err != nil {
			return fmt.Errorf("failed to write participant: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) CompetitionNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM competitions ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return names, nil
}
