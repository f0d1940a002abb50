package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositorySet exposes the repositories that participate in a single workflow
// mutation. Inside UnitOfWork.Do they all share one transaction, so a status
// change, its stage-history row, and its audit and timeline entries commit
// together or not at all.
type RepositorySet interface {
	Tickets() TicketRepository
	Stages() StageHistoryRepository
	Timeline() TimelineRepository
	Audit() AuditRepository
}

// UnitOfWork runs a function against a transactional RepositorySet.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(RepositorySet) error) error
}

type dbRepositorySet struct {
	tickets  TicketRepository
	stages   StageHistoryRepository
	timeline TimelineRepository
	audit    AuditRepository
}

func newRepositorySet(db DBTX) *dbRepositorySet {
	return &dbRepositorySet{
		tickets:  NewTicketRepository(db),
		stages:   NewStageHistoryRepository(db),
		timeline: NewTimelineRepository(db),
		audit:    NewAuditRepository(db),
	}
}

func (s *dbRepositorySet) Tickets() TicketRepository { return s.tickets }
func (s *dbRepositorySet) Stages() StageHistoryRepository { return s.stages }
func (s *dbRepositorySet) Timeline() TimelineRepository { return s.timeline }
func (s *dbRepositorySet) Audit() AuditRepository { return s.audit }

type pgxUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork builds a pgx-backed unit of work over the shared pool.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgxUnitOfWork{pool: pool}
}

func (u *pgxUnitOfWork) Do(ctx context.Context, fn func(RepositorySet) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(newRepositorySet(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
