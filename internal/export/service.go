package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/syncora/internal/entity"
	"github.com/joseph-ayodele/syncora/internal/repository"
)

const (
	SheetAssignments = "Assignments"
	SheetEvents      = "Events"
)

type AssignmentLister interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*entity.Assignment, error)
}

type EventLister interface {
	List(ctx context.Context, ownerID uuid.UUID, filter repository.EventFilter) ([]*entity.Event, error)
}

// Service produces XLSX workbooks of a user's planner data.
type Service struct {
	assignments AssignmentLister
	events      EventLister
	logger      *slog.Logger
}

// NewService builds the exporter. events may be nil, in which case the Events sheet is omitted.
func NewService(assignments AssignmentLister, events EventLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{assignments: assignments, events: events, logger: logger}
}

// ExportXLSX returns a workbook with the owner's assignments and, when from/to are
// given, the events starting inside that window.
func (s *Service) ExportXLSX(ctx context.Context, ownerID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	list, err := s.assignments.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	// the default sheet is renamed rather than left empty
	if err := f.SetSheetName(f.GetSheetName(0), SheetAssignments); err != nil {
		return nil, err
	}
	writeAssignments(f, list)

	nEvents := 0
	if s.events != nil {
		evs, err := s.events.List(ctx, ownerID, repository.EventFilter{From: from, To: to})
		if err != nil {
			return nil, fmt.Errorf("query events: %w", err)
		}
		if _, err := f.NewSheet(SheetEvents); err != nil {
			return nil, err
		}
		writeEvents(f, evs)
		nEvents = len(evs)
	}
	idx, _ := f.GetSheetIndex(SheetAssignments)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", ownerID.String(),
		"assignments", len(list),
		"events", nEvents,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeAssignments(f *excelize.File, list []*entity.Assignment) {
	const sheet = SheetAssignments
	writeHeader(f, sheet, []string{"Title", "Subject", "Estimated Minutes", "Description", "Created"})

	for i, a := range list {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, a.Title)
		write(2, deref(a.Subject))
		if a.EstimatedMinutes != nil {
			write(3, *a.EstimatedMinutes)
		}
		write(4, truncate(deref(a.Description), 140))
		write(5, a.CreatedAt.UTC().Format("2006-01-02"))
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // title
	_ = f.SetColWidth(sheet, "B", "B", 18) // subject
	_ = f.SetColWidth(sheet, "C", "C", 18) // minutes
	_ = f.SetColWidth(sheet, "D", "D", 48) // notes
	_ = f.SetColWidth(sheet, "E", "E", 14) // date
}

func writeEvents(f *excelize.File, list []*entity.Event) {
	const sheet = SheetEvents
	writeHeader(f, sheet, []string{"Title", "Type", "Start", "End", "Subject", "Priority", "Status"})

	for i, e := range list {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Title)
		write(2, string(e.EventType))
		write(3, e.StartAt.UTC().Format(time.RFC3339))
		write(4, e.EndAt.UTC().Format(time.RFC3339))
		write(5, deref(e.Subject))
		if e.Priority != nil {
			write(6, *e.Priority)
		}
		write(7, deref(e.Status))
	}
	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "C", "D", 22)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
