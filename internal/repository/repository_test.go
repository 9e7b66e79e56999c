package repository

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/common"
	"github.com/joseph-ayodele/syncora/internal/entity"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncora.db")
	require.NoError(t, Migrate(path, slog.Default()))

	db, err := Open(context.Background(), Config{DSN: path}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func seedUser(t *testing.T, db *DB, sub string) *entity.User {
	t.Helper()
	u, err := NewUserRepository(db, nil).UpsertGoogle(context.Background(), entity.GoogleProfile{
		Subject: sub, Email: sub + "@example.com", Name: sub,
	})
	require.NoError(t, err)
	return u
}

func TestMigrator_Version(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.db")
	mg, err := NewMigrator(path, nil)
	require.NoError(t, err)
	defer mg.Close()

	v, _, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	require.NoError(t, mg.Up())
	require.NoError(t, mg.Up(), "second run is a no-op")
	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestUserRepository_UpsertGoogle(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	first, err := repo.UpsertGoogle(ctx, entity.GoogleProfile{Subject: "g-1", Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	second, err := repo.UpsertGoogle(ctx, entity.GoogleProfile{Subject: "g-1", Email: "b@example.com", Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)
	assert.Equal(t, "B", got.Name)

	bySub, err := repo.GetByGoogleSubject(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, bySub.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.UpsertGoogle(ctx, entity.GoogleProfile{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestAssignmentRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner")
	repo := NewAssignmentRepository(db, nil)
	ctx := context.Background()

	created, err := repo.Create(ctx, owner.ID, entity.AssignmentFields{
		Title:            "Problem set 3",
		Subject:          strPtr("Math"),
		EstimatedMinutes: intPtr(45),
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.OwnerID)

	got, err := repo.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Problem set 3", got.Title)
	require.NotNil(t, got.EstimatedMinutes)
	assert.Equal(t, 45, *got.EstimatedMinutes)
	assert.Nil(t, got.Description)

	updated, err := repo.Update(ctx, owner.ID, created.ID, entity.AssignmentPatch{
		Title:   entity.Some("Problem set 3 (revised)"),
		Subject: entity.Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "Problem set 3 (revised)", updated.Title)
	assert.Nil(t, updated.Subject)
	require.NotNil(t, updated.EstimatedMinutes, "absent fields are untouched")
	assert.Equal(t, 45, *updated.EstimatedMinutes)

	_, err = repo.Update(ctx, owner.ID, created.ID, entity.AssignmentPatch{Title: entity.Null[string]()})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = repo.Update(ctx, owner.ID, created.ID, entity.AssignmentPatch{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	list, err := repo.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, owner.ID, created.ID))
	list, err = repo.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignmentRepository_ForbiddenAcrossOwners(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	repo := NewAssignmentRepository(db, nil)
	ctx := context.Background()

	a, err := repo.Create(ctx, owner.ID, entity.AssignmentFields{Title: "Essay"})
	require.NoError(t, err)

	for name, id := range map[string]uuid.UUID{"existing": a.ID, "missing": uuid.New()} {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Get(ctx, other.ID, id)
			assert.ErrorIs(t, err, common.ErrForbidden)

			_, err = repo.Update(ctx, other.ID, id, entity.AssignmentPatch{Title: entity.Some("mine now")})
			assert.ErrorIs(t, err, common.ErrForbidden)

			err = repo.Delete(ctx, other.ID, id)
			assert.ErrorIs(t, err, common.ErrForbidden)
		})
	}

	got, err := repo.Get(ctx, owner.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Essay", got.Title)

	list, err := repo.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEventRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	repo := NewEventRepository(db, nil)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ev, err := repo.Create(ctx, owner.ID, entity.EventFields{
		Title:     "Lab",
		StartAt:   start,
		EndAt:     start.Add(2 * time.Hour),
		EventType: constants.EventTypeSchoolTask,
		Priority:  intPtr(3),
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, owner.ID, entity.EventFields{
		Title:     "Backwards",
		StartAt:   start,
		EndAt:     start.Add(-time.Minute),
		EventType: constants.EventTypeGeneralEvent,
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	later := start.Add(48 * time.Hour)
	_, err = repo.Create(ctx, owner.ID, entity.EventFields{
		Title: "Club", StartAt: later, EndAt: later.Add(time.Hour), EventType: constants.EventTypeGeneralEvent,
	})
	require.NoError(t, err)

	from, to := start.Add(-time.Hour), start.Add(24*time.Hour)
	window, err := repo.List(ctx, owner.ID, EventFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, ev.ID, window[0].ID)

	all, err := repo.List(ctx, owner.ID, EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.Update(ctx, owner.ID, ev.ID, entity.EventPatch{EndAt: entity.Some(start.Add(-time.Hour))})
	assert.ErrorIs(t, err, common.ErrValidation, "merged window is checked")

	updated, err := repo.Update(ctx, owner.ID, ev.ID, entity.EventPatch{
		Priority: entity.Null[int](),
		Status:   entity.Some("done"),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Priority)
	require.NotNil(t, updated.Status)
	assert.Equal(t, "done", *updated.Status)
	assert.Equal(t, "Lab", updated.Title)

	_, err = repo.Get(ctx, other.ID, ev.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	err = repo.Delete(ctx, other.ID, ev.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, repo.Delete(ctx, owner.ID, ev.ID))
	_, err = repo.Get(ctx, owner.ID, ev.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
