package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/syncora/internal/common"
)

const (
	tableUsers       = "users"
	tableAssignments = "assignments"
	tableEvents      = "events"
)

// nowFn is swapped in tests that need stable timestamps.
var nowFn = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func execAffected(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (int64, error) {
	var res entsql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func queryEach(ctx context.Context, ex dialect.ExecQuerier, query string, args []any, scan func(*entsql.Rows) error) error {
	rows := &entsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// withTx runs fn inside a transaction, rolling back on any error.
func withTx(ctx context.Context, drv *entsql.Driver, fn func(tx dialect.Tx) error) (err error) {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func dbError(op string, err error) error {
	var ae *common.AppError
	if errors.As(err, &ae) {
		return err
	}
	return common.NewAppError("DATABASE_ERROR", op, fmt.Errorf("%w: %w", common.ErrDatabase, err))
}

func utc(t time.Time) time.Time {
	return t.UTC()
}
