package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
)

type AttendanceJobs struct {
	settingsRepo      tenant.SettingsRepository
	attendanceService attendance.AttendanceService
	interval          time.Duration
	now               func() time.Time
}

func NewAttendanceJobs(
	settingsRepo tenant.SettingsRepository,
	attendanceService attendance.AttendanceService,
	interval time.Duration,
) *AttendanceJobs {
	return &AttendanceJobs{
		settingsRepo:      settingsRepo,
		attendanceService: attendanceService,
		interval:          interval,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("process_daily_attendance", j.interval, j.ProcessDailyAttendance)
}

// ProcessDailyAttendance folds new presence events of today and yesterday into daily
// summaries for every known tenant. Yesterday is included so late events and sessions that
// were still open at the previous run are settled.
func (j *AttendanceJobs) ProcessDailyAttendance(ctx context.Context) error {
	companyIDs, err := j.settingsRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}

	if len(companyIDs) == 0 {
		slog.Debug("Cron: No companies to process")
		return nil
	}

	var (
		errs      []error
		processed int
		summaries int
	)
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}

		cfg, err := j.settingsRepo.GetConfig(ctx, companyID)
		if err != nil {
			slog.Error("Cron: Failed to load tenant settings", "company_id", companyID, "error", err)
			errs = append(errs, err)
			continue
		}

		today := cfg.LocalDate(j.now())
		for _, date := range []time.Time{today.AddDate(0, 0, -1), today} {
			result, err := j.attendanceService.ProcessDailyAttendance(ctx, attendance.ProcessDailyRequest{
				CompanyID: companyID,
				Date:      date.Format(tenant.DateLayout),
			})
			if err != nil {
				slog.Error("Cron: Failed to process daily attendance",
					"company_id", companyID, "date", date.Format(tenant.DateLayout), "error", err)
				errs = append(errs, fmt.Errorf("company %s date %s: %w", companyID, date.Format(tenant.DateLayout), err))
				continue
			}
			processed += result.EventsProcessed
			summaries += result.SummariesCreated + result.SummariesUpdated
		}
	}

	slog.Info("Cron: Daily attendance processed",
		"companies", len(companyIDs), "events", processed, "summaries", summaries, "failures", len(errs))

	return errors.Join(errs...)
}
