package repository

import (
	"context"
	"database/sql"
	"errors"

	"shoplit/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.Transactor = (*TxManager)(nil)

type txKey struct{}

// TxManager opens database transactions and carries them through ctx so
// every repository call made with that ctx joins the same transaction.
type TxManager struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewTxManager(db *sqlx.DB, logger *logrus.Logger) *TxManager {
	return &TxManager{db: db, log: logger}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		m.log.Errorf("Repository: Failed to begin transaction: %v", err)
		return domain.Internal(err, "could not start transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			m.log.Error("Repository: Recovered from panic, rolling back transaction")
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				m.log.Errorf("Repository: Failed to rollback transaction: %v (original error: %v)", rbErr, err)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			m.log.Errorf("Repository: Failed to commit transaction: %v", cErr)
			err = domain.Internal(cErr, "failed to commit transaction")
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func (m *TxManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// conn returns the transaction carried by ctx, or the pool.
func conn(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

// lockSuffix adds a row lock when the read happens inside a transaction.
func lockSuffix(ctx context.Context) string {
	if inTx(ctx) {
		return " FOR UPDATE"
	}
	return ""
}
