package repository

import (
	"context"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

var eventColumns = []string{
	"id", "owner_id", "title", "start_datetime", "end_datetime", "event_type", "subject",
	"priority", "description", "estimated_minutes", "status", "created_at", "updated_at",
}

// EventFilter narrows List to events starting in [From, To).
type EventFilter struct {
	From *time.Time
	To   *time.Time
}

type EventRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields entity.EventFields) (*entity.Event, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Event, error)
	List(ctx context.Context, ownerID uuid.UUID, filter EventFilter) ([]*entity.Event, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, patch entity.EventPatch) (*entity.Event, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type eventRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewEventRepository(db *DB, logger *slog.Logger) EventRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventRepository{db: db, logger: logger}
}

func (r *eventRepository) Create(ctx context.Context, ownerID uuid.UUID, fields entity.EventFields) (*entity.Event, error) {
	if err := checkEventWindow(fields.StartAt, fields.EndAt); err != nil {
		return nil, err
	}
	eventType, ok := constants.CanonicalEventType(string(fields.EventType))
	if !ok {
		return nil, common.InvalidArgumentErrorf("unknown event_type %q", fields.EventType)
	}
	now := nowFn()
	e := &entity.Event{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Title:            fields.Title,
		StartAt:          utc(fields.StartAt),
		EndAt:            utc(fields.EndAt),
		EventType:        eventType,
		Subject:          fields.Subject,
		Priority:         fields.Priority,
		Description:      fields.Description,
		EstimatedMinutes: fields.EstimatedMinutes,
		Status:           fields.Status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(tableEvents).
		Columns(eventColumns...).
		Values(e.ID, e.OwnerID, e.Title, e.StartAt, e.EndAt, string(e.EventType), e.Subject,
			e.Priority, e.Description, e.EstimatedMinutes, e.Status, e.CreatedAt, e.UpdatedAt).
		Query()
	err := withTx(ctx, r.db.Driver, func(tx dialect.Tx) error {
		_, err := execAffected(ctx, tx, q, args)
		return err
	})
	if err != nil {
		r.logger.Error("failed to create event", "user_id", ownerID, "error", err)
		return nil, dbError("create event", err)
	}
	r.logger.Info("event created", "event_id", e.ID, "user_id", ownerID)
	return e, nil
}

func (r *eventRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Event, error) {
	list, err := r.query(ctx, r.db.Driver, entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID)))
	if err != nil {
		r.logger.Error("failed to get event", "event_id", id, "user_id", ownerID, "error", err)
		return nil, dbError("get event", err)
	}
	if len(list) == 0 {
		return nil, common.ForbiddenError("event not accessible")
	}
	return list[0], nil
}

func (r *eventRepository) List(ctx context.Context, ownerID uuid.UUID, filter EventFilter) ([]*entity.Event, error) {
	preds := []*entsql.Predicate{entsql.EQ("owner_id", ownerID)}
	if filter.From != nil {
		preds = append(preds, entsql.GTE("start_datetime", utc(*filter.From)))
	}
	if filter.To != nil {
		preds = append(preds, entsql.LT("start_datetime", utc(*filter.To)))
	}
	list, err := r.query(ctx, r.db.Driver, entsql.And(preds...))
	if err != nil {
		r.logger.Error("failed to list events", "user_id", ownerID, "error", err)
		return nil, dbError("list events", err)
	}
	return list, nil
}

func (r *eventRepository) Update(ctx context.Context, ownerID, id uuid.UUID, patch entity.EventPatch) (*entity.Event, error) {
	if patch.IsEmpty() {
		return nil, common.InvalidArgumentError("no fields to update")
	}
	v := common.NewValidator()
	v.Check(!patch.Title.Set || patch.Title.Valid, "title", "cannot be null")
	v.Check(!patch.StartAt.Set || patch.StartAt.Valid, "start_datetime", "cannot be null")
	v.Check(!patch.EndAt.Set || patch.EndAt.Valid, "end_datetime", "cannot be null")
	v.Check(!patch.EventType.Set || patch.EventType.Valid, "event_type", "cannot be null")
	if err := v.Err(); err != nil {
		return nil, err
	}

	var out *entity.Event
	err := withTx(ctx, r.db.Driver, func(tx dialect.Tx) error {
		scope := entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))
		current, err := r.query(ctx, tx, scope)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return common.ForbiddenError("event not accessible")
		}
		merged := applyEventPatch(*current[0], patch)
		if err := checkEventWindow(merged.StartAt, merged.EndAt); err != nil {
			return err
		}
		canonical, ok := constants.CanonicalEventType(string(merged.EventType))
		if !ok {
			return common.InvalidArgumentErrorf("unknown event_type %q", merged.EventType)
		}
		merged.EventType = canonical
		merged.UpdatedAt = nowFn()

		q, args := entsql.Dialect(r.db.Dialect).
			Update(tableEvents).
			Set("title", merged.Title).
			Set("start_datetime", merged.StartAt).
			Set("end_datetime", merged.EndAt).
			Set("event_type", string(merged.EventType)).
			Set("subject", merged.Subject).
			Set("priority", merged.Priority).
			Set("description", merged.Description).
			Set("estimated_minutes", merged.EstimatedMinutes).
			Set("status", merged.Status).
			Set("updated_at", merged.UpdatedAt).
			Where(scope).
			Query()
		n, err := execAffected(ctx, tx, q, args)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ForbiddenError("event not accessible")
		}
		out = &merged
		return nil
	})
	if err != nil {
		r.logger.Warn("failed to update event", "event_id", id, "user_id", ownerID, "error", err)
		return nil, dbError("update event", err)
	}
	return out, nil
}

func (r *eventRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	q, args := entsql.Dialect(r.db.Dialect).
		Delete(tableEvents).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner_id", ownerID))).
		Query()
	n, err := execAffected(ctx, r.db.Driver, q, args)
	if err != nil {
		r.logger.Error("failed to delete event", "event_id", id, "user_id", ownerID, "error", err)
		return dbError("delete event", err)
	}
	if n == 0 {
		return common.ForbiddenError("event not accessible")
	}
	return nil
}

func (r *eventRepository) query(ctx context.Context, ex dialect.ExecQuerier, pred *entsql.Predicate) ([]*entity.Event, error) {
	q, args := entsql.Dialect(r.db.Dialect).
		Select(eventColumns...).
		From(entsql.Table(tableEvents)).
		Where(pred).
		OrderBy(entsql.Asc("start_datetime")).
		Query()

	var out []*entity.Event
	err := queryEach(ctx, ex, q, args, func(rows *entsql.Rows) error {
		var (
			e         entity.Event
			eventType string
		)
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.StartAt, &e.EndAt, &eventType, &e.Subject,
			&e.Priority, &e.Description, &e.EstimatedMinutes, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return err
		}
		e.EventType = constants.EventType(eventType)
		out = append(out, &e)
		return nil
	})
	return out, err
}

func applyEventPatch(e entity.Event, p entity.EventPatch) entity.Event {
	if p.Title.Set {
		e.Title = p.Title.Value
	}
	if p.StartAt.Set {
		e.StartAt = utc(p.StartAt.Value)
	}
	if p.EndAt.Set {
		e.EndAt = utc(p.EndAt.Value)
	}
	if p.EventType.Set {
		e.EventType = p.EventType.Value
	}
	if p.Subject.Set {
		e.Subject = p.Subject.Ptr()
	}
	if p.Priority.Set {
		e.Priority = p.Priority.Ptr()
	}
	if p.Description.Set {
		e.Description = p.Description.Ptr()
	}
	if p.EstimatedMinutes.Set {
		e.EstimatedMinutes = p.EstimatedMinutes.Ptr()
	}
	if p.Status.Set {
		e.Status = p.Status.Ptr()
	}
	return e
}

func checkEventWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return common.NewAppError("VALIDATION_FAILED", "start_datetime and end_datetime are required", common.ErrValidation)
	}
	if end.Before(start) {
		return common.NewAppError("VALIDATION_FAILED", "end_datetime must not precede start_datetime", common.ErrValidation)
	}
	return nil
}
