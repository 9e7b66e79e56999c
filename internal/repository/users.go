package repository

import (
	"context"
	"log/slog"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

var userColumns = []string{"id", "google_sub", "email", "name", "created_at", "updated_at"}

type UserRepository interface {
	// UpsertGoogle returns the user for profile.Subject, creating it on first login
	// and refreshing email and name on later ones.
	UpsertGoogle(ctx context.Context, profile entity.GoogleProfile) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByGoogleSubject(ctx context.Context, sub string) (*entity.User, error)
}

type userRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUserRepository(db *DB, logger *slog.Logger) UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) UpsertGoogle(ctx context.Context, profile entity.GoogleProfile) (*entity.User, error) {
	if profile.Subject == "" {
		return nil, common.InvalidArgumentError("google subject is required")
	}
	var out *entity.User
	err := withTx(ctx, r.db.Driver, func(tx dialect.Tx) error {
		existing, err := r.findOne(ctx, tx, entsql.EQ("google_sub", profile.Subject))
		if err != nil {
			return err
		}
		now := nowFn()
		b := entsql.Dialect(r.db.Dialect)
		if existing != nil {
			q, args := b.Update(tableUsers).
				Set("email", profile.Email).
				Set("name", profile.Name).
				Set("updated_at", now).
				Where(entsql.EQ("id", existing.ID)).
				Query()
			if _, err := execAffected(ctx, tx, q, args); err != nil {
				return err
			}
			existing.Email, existing.Name, existing.UpdatedAt = profile.Email, profile.Name, now
			out = existing
			return nil
		}

		u := &entity.User{
			ID:        uuid.New(),
			GoogleSub: profile.Subject,
			Email:     profile.Email,
			Name:      profile.Name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		q, args := b.Insert(tableUsers).
			Columns(userColumns...).
			Values(u.ID, u.GoogleSub, u.Email, u.Name, u.CreatedAt, u.UpdatedAt).
			Query()
		if _, err := execAffected(ctx, tx, q, args); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		r.logger.Error("failed to upsert user", "google_sub", profile.Subject, "error", err)
		return nil, dbError("upsert user", err)
	}
	r.logger.Debug("user upserted", "user_id", out.ID)
	return out, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := r.findOne(ctx, r.db.Driver, entsql.EQ("id", id))
	if err != nil {
		r.logger.Error("failed to get user", "user_id", id, "error", err)
		return nil, dbError("get user", err)
	}
	if u == nil {
		return nil, common.NotFoundError("user not found")
	}
	return u, nil
}

func (r *userRepository) GetByGoogleSubject(ctx context.Context, sub string) (*entity.User, error) {
	u, err := r.findOne(ctx, r.db.Driver, entsql.EQ("google_sub", sub))
	if err != nil {
		return nil, dbError("get user", err)
	}
	if u == nil {
		return nil, common.NotFoundError("user not found")
	}
	return u, nil
}

func (r *userRepository) findOne(ctx context.Context, ex dialect.ExecQuerier, pred *entsql.Predicate) (*entity.User, error) {
	q, args := entsql.Dialect(r.db.Dialect).
		Select(userColumns...).
		From(entsql.Table(tableUsers)).
		Where(pred).
		Limit(1).
		Query()
	var out *entity.User
	err := queryEach(ctx, ex, q, args, func(rows *entsql.Rows) error {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.GoogleSub, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		out = &u
		return nil
	})
	return out, err
}
