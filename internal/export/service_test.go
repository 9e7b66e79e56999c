package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syncora/constants"
	"github.com/joseph-ayodele/syncora/internal/entity"
	"github.com/joseph-ayodele/syncora/internal/repository"
)

type stubAssignments struct {
	list []*entity.Assignment
	err  error
}

func (s stubAssignments) List(context.Context, uuid.UUID) ([]*entity.Assignment, error) {
	return s.list, s.err
}

type stubEvents struct {
	got  repository.EventFilter
	list []*entity.Event
}

func (s *stubEvents) List(_ context.Context, _ uuid.UUID, f repository.EventFilter) ([]*entity.Event, error) {
	s.got = f
	return s.list, nil
}

func TestExportXLSX(t *testing.T) {
	subject, minutes := "History", 90
	prio := 2
	start := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	events := &stubEvents{list: []*entity.Event{{
		Title: "Study group", EventType: constants.EventTypeGeneralEvent,
		StartAt: start, EndAt: start.Add(time.Hour), Priority: &prio,
	}}}
	svc := NewService(stubAssignments{list: []*entity.Assignment{
		{Title: "Essay draft", Subject: &subject, EstimatedMinutes: &minutes, CreatedAt: start},
		{Title: "Reading"},
	}}, events, nil)

	to := start.Add(24 * time.Hour)
	out, err := svc.ExportXLSX(context.Background(), uuid.New(), &start, &to)
	require.NoError(t, err)
	assert.Equal(t, &start, events.got.From)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetAssignments)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Subject", "Estimated Minutes", "Description", "Created"}, rows[0])
	assert.Equal(t, "Essay draft", rows[1][0])
	assert.Equal(t, "History", rows[1][1])
	assert.Equal(t, "90", rows[1][2])
	assert.Equal(t, "Reading", rows[2][0])

	evRows, err := f.GetRows(SheetEvents)
	require.NoError(t, err)
	require.Len(t, evRows, 2)
	assert.Equal(t, "general_event", evRows[1][1])
	assert.Equal(t, "2026-04-01T15:00:00Z", evRows[1][2])
}

func TestExportXLSX_ListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(stubAssignments{err: boom}, nil, nil).ExportXLSX(context.Background(), uuid.New(), nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
