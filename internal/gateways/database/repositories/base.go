package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const defaultTimeout = 10 * time.Second

// RepositoryError represents a repository-level error
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (re *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", re.Operation, re.Entity, re.Err)
}

func (re *RepositoryError) Unwrap() error {
	return re.Err
}

// NotFoundError represents an entity not found error
type NotFoundError struct {
	Entity string
	ID     any
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", nfe.Entity, nfe.ID)
}

func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

type base struct {
	db bun.IDB
}

func (b base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultTimeout)
}

// postgres reports whether row locks are available. SQLite serializes
// writers itself, so FOR UPDATE is only added on PostgreSQL.
func (b base) postgres() bool {
	return b.db.Dialect().Name() == dialect.PG
}

func handleError(operation, entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return &RepositoryError{Operation: operation, Entity: entity, Err: err}
}

// Set bundles every repository bound to one bun.IDB, either the pool or an
// open transaction.
type Set struct {
	db bun.IDB

	Accounts  *AccountRepository
	Events    *EventRepository
	Referrals *ReferralRepository
	Quiz      *QuizRepository
	Spins     *SpinRepository
	Missions  *MissionRepository
	Orders    *OrderRepository
	Meta      *MetaRepository
}

func New(db bun.IDB) *Set {
	b := base{db: db}
	return &Set{
		db:        db,
		Accounts:  &AccountRepository{b},
		Events:    &EventRepository{b},
		Referrals: &ReferralRepository{b},
		Quiz:      &QuizRepository{b},
		Spins:     &SpinRepository{b},
		Missions:  &MissionRepository{b},
		Orders:    &OrderRepository{b},
		Meta:      &MetaRepository{b},
	}
}

// WithTx rebinds the set to tx.
func (s *Set) WithTx(tx bun.Tx) *Set {
	return New(tx)
}

func (s *Set) DB() bun.IDB {
	return s.db
}
