// Package reports manages cached reports, report templates and report
// schedules, and renders a cached report for export.
package reports

import (
	"context"
	"encoding/json"
	"time"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/schedule"
	"github.com/tknelms/carkeeper/backend/internal/store"
	"github.com/tknelms/carkeeper/backend/internal/uuid"
)

// Service owns the reports, reportTemplates and reportSchedules
// collections. It also reads vehicles and todos when generating
// scheduled report data.
type Service struct {
	reports   store.Collection[models.Report]
	templates store.Collection[models.ReportTemplate]
	schedules store.Collection[models.ReportSchedule]
	vehicles  store.Collection[models.Vehicle]
	todos     store.Collection[models.Todo]
}

// New creates the report service on top of an opened store.
func New(s *store.Store) *Service {
	return &Service{
		reports:   store.NewCollection[models.Report](s, store.Reports),
		templates: store.NewCollection[models.ReportTemplate](s, store.ReportTemplates),
		schedules: store.NewCollection[models.ReportSchedule](s, store.ReportSchedules),
		vehicles:  store.NewCollection[models.Vehicle](s, store.Vehicles),
		todos:     store.NewCollection[models.Todo](s, store.Todos),
	}
}

// SaveReport upserts a cached report, assigning an id and stamping
// GeneratedAt when absent.
func (s *Service) SaveReport(ctx context.Context, r models.Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	if r.GeneratedAt == "" {
		r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.reports.Put(ctx, r)
}

// SaveTemplate upserts a report template, assigning an id and stamping
// CreatedAt when absent.
func (s *Service) SaveTemplate(ctx context.Context, t models.ReportTemplate) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.templates.Put(ctx, t)
}

// SaveSchedule upserts a report schedule. Besides the id and CreatedAt
// stamps it computes the schedule's NextRun, validating the recurrence
// in the process.
func (s *Service) SaveSchedule(ctx context.Context, sched models.ReportSchedule) (string, error) {
	if sched.ID == "" {
		sched.ID = uuid.New()
	}
	now := time.Now()
	if sched.CreatedAt == "" {
		sched.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	next, err := schedule.NextRunFor(now, sched)
	if err != nil {
		return "", err
	}
	sched.NextRun = next.UTC().Format(time.RFC3339)
	return s.schedules.Put(ctx, sched)
}

// GenerateScheduled builds and caches the report for a due schedule.
// Used as the schedule runner's generator.
func (s *Service) GenerateScheduled(ctx context.Context, sched models.ReportSchedule) error {
	var (
		title      = "Scheduled report"
		reportType = models.ReportTypeMaintenanceHistory
	)
	if sched.TemplateID != "" {
		tmpl, err := s.templates.Get(ctx, sched.TemplateID)
		if err != nil {
			return err
		}
		if tmpl == nil {
			return apperr.Newf(apperr.ErrNotFound, "report template %q not found", sched.TemplateID)
		}
		title = tmpl.Name
		if tmpl.Type != "" {
			reportType = tmpl.Type
		}
	}

	data, err := s.buildReportData(ctx, reportType)
	if err != nil {
		return err
	}

	_, err = s.SaveReport(ctx, models.Report{
		Title: title,
		Type:  reportType,
		Data:  data,
	})
	return err
}

// buildReportData assembles report rows from the vehicles and todos
// collections.
func (s *Service) buildReportData(ctx context.Context, reportType string) (json.RawMessage, error) {
	todos, err := s.todos.All(ctx)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(vehicles))
	for _, v := range vehicles {
		names[v.ID] = v.Name
	}

	type row struct {
		Vehicle   string `json:"vehicle"`
		Title     string `json:"title"`
		Status    string `json:"status"`
		DueDate   string `json:"dueDate,omitempty"`
		CostCents int    `json:"costCents,omitempty"`
	}
	rows := make([]row, 0, len(todos))
	for _, t := range todos {
		if reportType == models.ReportTypeCostSummary && t.CostCents == 0 {
			continue
		}
		rows = append(rows, row{
			Vehicle:   names[t.VehicleID],
			Title:     t.Title,
			Status:    t.Status,
			DueDate:   t.DueDate,
			CostCents: t.CostCents,
		})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "encoding report data", err)
	}
	logging.Debug("report data assembled", map[string]any{"type": reportType, "rows": len(rows)})
	return data, nil
}
