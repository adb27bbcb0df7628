package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/sumisonnn/MEDICO/internal/cart"
	"github.com/sumisonnn/MEDICO/internal/catalog"
	"github.com/sumisonnn/MEDICO/internal/order"
)

// Transactor runs checkout work in a single READ COMMITTED transaction.
// Rows that must not change underneath it are locked explicitly with
// SELECT ... FOR UPDATE by the repositories.
type Transactor struct {
	pool interface {
		BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	}
}

func NewTransactor(p *Postgres) *Transactor {
	return &Transactor{pool: p.Pool}
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, repos order.Repositories) error) (err error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("Panic recovered during transaction, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Debug().Err(err).Msg("Transaction failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	repos := order.Repositories{
		Medicines: catalog.NewPostgresRepository(tx),
		Carts:     cart.NewPostgresRepository(tx),
		Orders:    order.NewPostgresRepository(tx),
	}
	return fn(ctx, repos)
}
