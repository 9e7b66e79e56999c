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

var assignmentColumns = []string{
	"id", "owner_id", "title", "subject", "estimated_minutes", "description", "created_at", "updated_at",
}

// AssignmentRepository is owner-scoped: every read and write filters on owner_id,
// and a row that is missing or owned by someone else is reported as forbidden.
type AssignmentRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields entity.AssignmentFields) (*entity.Assignment, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Assignment, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*entity.Assignment, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch entity.AssignmentPatch) (*entity.Assignment, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type assignmentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewAssignmentRepository(db *DB, logger *slog.Logger) AssignmentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &assignmentRepository{db: db, logger: logger}
}

func (r *assignmentRepository) Create(ctx context.Context, ownerID uuid.UUID, fields entity.AssignmentFields) (*entity.Assignment, error) {
	now := nowFn()
	a := &entity.Assignment{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Title:            fields.Title,
		Subject:          fields.Subject,
		EstimatedMinutes: fields.EstimatedMinutes,
		Description:      fields.Description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(tableAssignments).
		Columns(assignmentColumns...).
		Values(a.ID, a.OwnerID, a.Title, a.Subject, a.EstimatedMinutes, a.Description, a.CreatedAt, a.UpdatedAt).
		Query()

	err := withTx(ctx, r.db.Driver, func(tx dialect.Tx) error {
		_, err := execAffected(ctx, tx, q, args)
		return err
	})
	if err != nil {
		r.logger.Error("failed to create assignment", "user_id", ownerID, "error", err)
		return nil, dbError("create assignment", err)
	}
	r.logger.Info("assignment created", "assignment_id", a.ID, "user_id", ownerID)
	return a, nil
}

func (r *assignmentRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Assignment, error) {
	list, err := r.query(ctx, r.db.Driver, ownerID, &id)
	if err != nil {
		r.logger.Error("failed to get assignment", "assignment_id", id, "user_id", ownerID, "error", err)
		return nil, dbError("get assignment", err)
	}
	if len(list) == 0 {
		return nil, common.ForbiddenError("assignment not accessible")
	}
	return list[0], nil
}

func (r *assignmentRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*entity.Assignment, error) {
	list, err := r.query(ctx, r.db.Driver, ownerID, nil)
	if err != nil {
		r.logger.Error("failed to list assignments", "user_id", ownerID, "error", err)
		return nil, dbError("list assignments", err)
	}
	return list, nil
}

func (r *assignmentRepository) Update(ctx context.Context, ownerID, id uuid.UUID, patch entity.AssignmentPatch) (*entity.Assignment, error) {
	if patch.IsEmpty() {
		return nil, common.InvalidArgumentError("no fields to update")
	}
	if patch.Title.Set && !patch.Title.Valid {
		return nil, common.NewAppError("VALIDATION_FAILED", "title cannot be null", common.ErrValidation)
	}

	u := entsql.Dialect(r.db.Dialect).Update(tableAssignments).Set("updated_at", nowFn())
	if patch.Title.Set {
		u.Set("title", patch.Title.Value)
	}
	if patch.Subject.Set {
		u.Set("subject", patch.Subject.SQLValue())
	}
	if patch.EstimatedMinutes.Set {
		u.Set("estimated_minutes", patch.EstimatedMinutes.SQLValue())
	}
	if patch.Description.Set {
		u.Set("description", patch.Description.SQLValue())
	}
	q, args := u.Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))).Query()

	var out *entity.Assignment
	err := withTx(ctx, r.db.Driver, func(tx dialect.Tx) error {
		n, err := execAffected(ctx, tx, q, args)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ForbiddenError("assignment not accessible")
		}
		list, err := r.query(ctx, tx, ownerID, &id)
		if err != nil {
			return err
		}
		out = list[0]
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to update assignment", "assignment_id", id, "user_id", ownerID, "error", err)
		return nil, dbError("update assignment", err)
	}
	return out, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	q, args := entsql.Dialect(r.db.Dialect).
		Delete(tableAssignments).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))).
		Query()
	n, err := execAffected(ctx, r.db.Driver, q, args)
	if err != nil {
		r.logger.Error("failed to delete assignment", "assignment_id", id, "user_id", ownerID, "error", err)
		return dbError("delete assignment", err)
	}
	if n == 0 {
		return common.ForbiddenError("assignment not accessible")
	}
	r.logger.Info("assignment deleted", "assignment_id", id, "user_id", ownerID)
	return nil
}

func (r *assignmentRepository) query(ctx context.Context, ex dialect.ExecQuerier, ownerID uuid.UUID, id *uuid.UUID) ([]*entity.Assignment, error) {
	pred := entsql.EQ("owner_id", ownerID)
	if id != nil {
		pred = entsql.And(entsql.EQ("id", *id), pred)
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Select(assignmentColumns...).
		From(entsql.Table(tableAssignments)).
		Where(pred).
		OrderBy(entsql.Desc("created_at")).
		Query()

	var out []*entity.Assignment
	err := queryEach(ctx, ex, q, args, func(rows *entsql.Rows) error {
		var a entity.Assignment
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Title, &a.Subject, &a.EstimatedMinutes, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		out = append(out, &a)
		return nil
	})
	return out, err
}
