package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"procurement-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetSupplierByID retrieves a supplier by ID
func (s *Store) GetSupplierByID(ctx context.Context, id string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.GetContext(ctx, &supplier, "SELECT * FROM suppliers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// GetSuppliersByCategory retrieves suppliers declaring a category
func (s *Store) GetSuppliersByCategory(ctx context.Context, category string) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.SelectContext(ctx, &suppliers,
		"SELECT * FROM suppliers WHERE categories @> ARRAY[$1]::text[] ORDER BY id", category)
	return suppliers, err
}

// GetLane retrieves a demand lane
func (s *Store) GetLane(ctx context.Context, country, category string) (*models.Lane, error) {
	var lane models.Lane
	err := s.db.GetContext(ctx, &lane,
		"SELECT * FROM lanes WHERE country = $1 AND category = $2", country, category)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lane not found: %s/%s", country, category)
	}
	if err != nil {
		return nil, err
	}
	return &lane, nil
}

// UpsertLaneDemand creates a lane in its initial state or adds to an
// existing lane's demand value, returning the resulting row
func (s *Store) UpsertLaneDemand(ctx context.Context, country, category, initialState string, demandValue decimal.Decimal) (*models.Lane, error) {
	var lane models.Lane
	query := `
		INSERT INTO lanes (country, category, state, demand_value, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (country, category)
		DO UPDATE SET demand_value = lanes.demand_value + EXCLUDED.demand_value, updated_at = NOW()
		RETURNING *`

	err := s.db.GetContext(ctx, &lane, query, country, category, initialState, demandValue)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert lane demand: %w", err)
	}
	return &lane, nil
}

// UpdateLaneState updates a lane's state
func (s *Store) UpdateLaneState(ctx context.Context, country, category, state string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE lanes SET state = $1, updated_at = NOW() WHERE country = $2 AND category = $3",
		state, country, category)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("lane not found: %s/%s", country, category)
	}
	return err
}

// GetLaneCapacity retrieves provisioned capacity for a lane.
// Returns nil with no error when no capacity record exists.
func (s *Store) GetLaneCapacity(ctx context.Context, country, category string) (*models.LaneCapacity, error) {
	var cap models.LaneCapacity
	err := s.db.GetContext(ctx, &cap,
		"SELECT * FROM lane_capacity WHERE country = $1 AND category = $2", country, category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cap, nil
}

// GetActiveLaneLock retrieves the active lock for a lane, if any
func (s *Store) GetActiveLaneLock(ctx context.Context, country, category string) (*models.LaneLock, error) {
	var lock models.LaneLock
	err := s.db.GetContext(ctx, &lock,
		"SELECT * FROM lane_locks WHERE country = $1 AND category = $2 AND active", country, category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// GetLaneAssignments retrieves active assignments for a lock ordered by rank
func (s *Store) GetLaneAssignments(ctx context.Context, lockID int64) ([]models.LaneAssignment, error) {
	var assignments []models.LaneAssignment
	err := s.db.SelectContext(ctx, &assignments,
		"SELECT * FROM lane_assignments WHERE lock_id = $1 AND active ORDER BY priority_rank", lockID)
	return assignments, err
}

// InsertLaneTransition appends a transition audit row. The table is
// insert-only; there is no corresponding update or delete.
func (s *Store) InsertLaneTransition(ctx context.Context, rec *models.LaneTransitionRecord) error {
	query := `
		INSERT INTO lane_transition_events (country, category, from_state, to_state, actor, occurred_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return s.db.GetContext(ctx, &rec.ID, query,
		rec.Country, rec.Category, rec.FromState, rec.ToState, rec.Actor, rec.OccurredAt, rec.Metadata)
}

// GetLaneTransitions retrieves the audit trail for a lane, oldest first
func (s *Store) GetLaneTransitions(ctx context.Context, country, category string) ([]models.LaneTransitionRecord, error) {
	var recs []models.LaneTransitionRecord
	err := s.db.SelectContext(ctx, &recs,
		"SELECT * FROM lane_transition_events WHERE country = $1 AND category = $2 ORDER BY occurred_at", country, category)
	return recs, err
}
