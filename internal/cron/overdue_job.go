package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/mesubash/library-management-system-sub000/internal/stats"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

const overdueJobName = "overdue-scan"

// OverdueJob reports every overdue loan with its accrued fine. It only
// reads; fines are persisted when the book actually comes back.
type OverdueJob struct {
	stats stats.Service
	logg  *logger.Logger
}

// NewOverdueJob wires the overdue scan.
func NewOverdueJob(statsSvc stats.Service, logg *logger.Logger) (*OverdueJob, error) {
	if statsSvc == nil {
		return nil, fmt.Errorf("stats service is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &OverdueJob{stats: statsSvc, logg: logg}, nil
}

func (j *OverdueJob) Name() string {
	return overdueJobName
}

func (j *OverdueJob) Run(ctx context.Context) error {
	views, err := j.stats.Overdue(ctx)
	if err != nil {
		return fmt.Errorf("scanning overdue loans: %w", err)
	}

	for _, view := range views {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		entry := j.logg.WithFields(ctx, map[string]any{
			"record_id":    view.RecordID,
			"user_id":      view.UserID,
			"book_id":      view.BookID,
			"due_date":     view.DueDate.Format(time.RFC3339),
			"days_overdue": view.DaysOverdue,
			"accrued_fine": view.AccruedFine.String(),
		})
		j.logg.Warn(entry, "loan overdue")
	}

	j.logg.Info(j.logg.WithField(ctx, "overdue_count", len(views)), "overdue scan finished")
	return nil
}
