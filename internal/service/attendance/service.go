package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type AttendanceServiceImpl struct {
	transactor database.Transactor
	attendance.EventRepository
	attendance.DailySummaryRepository
	tenant.SettingsRepository
	now func() time.Time
}

func NewAttendanceService(
	transactor database.Transactor,
	eventRepo attendance.EventRepository,
	summaryRepo attendance.DailySummaryRepository,
	settingsRepo tenant.SettingsRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		transactor:             transactor,
		EventRepository:        eventRepo,
		DailySummaryRepository: summaryRepo,
		SettingsRepository:     settingsRepo,
		now:                    time.Now,
	}
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

// ProcessDailyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ProcessDailyAttendance(ctx context.Context, req attendance.ProcessDailyRequest) (attendance.ProcessResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ProcessResult{}, err
	}
	date, _ := time.Parse(tenant.DateLayout, req.Date)

	cfg, err := s.SettingsRepository.GetConfig(ctx, req.CompanyID)
	if err != nil {
		return attendance.ProcessResult{}, fmt.Errorf("failed to get tenant config: %w", err)
	}

	result := attendance.ProcessResult{Date: req.Date}
	now := s.now()
	start, end := cfg.DayBounds(date)

	// Events are read under the day lock so a concurrent run cannot overwrite a summary
	// built from newer events with one built from an older read.
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.EventRepository.LockDay(txCtx, req.CompanyID, date); err != nil {
			return err
		}

		events, err := s.EventRepository.GetByDateRange(txCtx, req.CompanyID, start, end)
		if err != nil {
			return fmt.Errorf("failed to get presence events: %w", err)
		}

		// Group every event of the day by pair; a touched pair is recomputed from all of its
		// events, not only the new ones, so repeated runs converge on the same summary.
		byPair := make(map[attendance.PairKey][]attendance.PresenceEvent)
		touched := make(map[attendance.PairKey]struct{})
		var pendingIDs []string
		for _, e := range events {
			key := attendance.PairKey{EmployeeID: e.EmployeeID, SiteID: e.SiteID}
			byPair[key] = append(byPair[key], e)
			if e.SummarizedAt == nil {
				touched[key] = struct{}{}
				pendingIDs = append(pendingIDs, e.ID)
			} else if req.Reprocess {
				touched[key] = struct{}{}
			}
		}
		result.EventsProcessed = len(pendingIDs)

		keys := make([]attendance.PairKey, 0, len(touched))
		for key := range touched {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].EmployeeID != keys[j].EmployeeID {
				return keys[i].EmployeeID < keys[j].EmployeeID
			}
			return keys[i].SiteID < keys[j].SiteID
		})

		for _, key := range keys {
			summary := BuildSummary(cfg, key, date, byPair[key], now)
			_, inserted, err := s.DailySummaryRepository.Upsert(txCtx, summary)
			if err != nil {
				return fmt.Errorf("failed to upsert daily summary: %w", err)
			}
			if inserted {
				result.SummariesCreated++
			} else {
				result.SummariesUpdated++
			}
		}

		if len(pendingIDs) > 0 {
			if err := s.EventRepository.MarkSummarized(txCtx, pendingIDs, now, req.CompanyID); err != nil {
				return fmt.Errorf("failed to mark events summarized: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.ProcessResult{}, err
	}

	if result.EventsProcessed == 0 && result.SummariesCreated+result.SummariesUpdated == 0 {
		slog.Debug("No presence events to process", "company_id", req.CompanyID, "date", req.Date)
		return result, nil
	}

	slog.Info("Processed daily attendance",
		"company_id", req.CompanyID,
		"date", req.Date,
		"events_processed", result.EventsProcessed,
		"summaries_created", result.SummariesCreated,
		"summaries_updated", result.SummariesUpdated,
	)

	return result, nil
}

// ListDailySummaries implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDailySummaries(ctx context.Context, req attendance.ListDailySummaryRequest) ([]attendance.DailySummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, _ := time.Parse(tenant.DateLayout, req.Date)

	summaries, err := s.DailySummaryRepository.GetByDate(ctx, req.CompanyID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summaries: %w", err)
	}

	responses := make([]attendance.DailySummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, mapSummaryToResponse(summary))
	}
	return responses, nil
}

// WorkingDays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) WorkingDays(ctx context.Context, req attendance.WorkingDaysRequest) (attendance.WorkingDaysResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.WorkingDaysResponse{}, err
	}
	from, _ := time.Parse(tenant.DateLayout, req.From)
	to, _ := time.Parse(tenant.DateLayout, req.To)

	cfg, err := s.SettingsRepository.GetConfig(ctx, req.CompanyID)
	if err != nil {
		return attendance.WorkingDaysResponse{}, fmt.Errorf("failed to get tenant config: %w", err)
	}

	days := WorkingDaysBetween(cfg, from, to)

	return attendance.WorkingDaysResponse{
		From:          req.From,
		To:            req.To,
		WorkingDays:   days,
		ExpectedHours: cfg.ExpectedHoursPerDay.Mul(decimal.NewFromInt(int64(days))).StringFixed(2),
	}, nil
}

// mapSummaryToResponse converts a DailySummary entity to DailySummaryResponse
func mapSummaryToResponse(s attendance.DailySummary) attendance.DailySummaryResponse {
	var employeeName, siteName string
	if s.EmployeeName != nil {
		employeeName = *s.EmployeeName
	}
	if s.SiteName != nil {
		siteName = *s.SiteName
	}

	return attendance.DailySummaryResponse{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		EmployeeName:       employeeName,
		SiteID:             s.SiteID,
		SiteName:           siteName,
		Date:               s.Date.Format(tenant.DateLayout),
		FirstEntryAt:       timePtrToString(s.FirstEntryAt),
		LastExitAt:         timePtrToString(s.LastExitAt),
		TimeOnSiteMinutes:  s.TimeOnSiteMinutes,
		ActualHours:        s.ActualHours.StringFixed(2),
		ExpectedHours:      s.ExpectedHours.StringFixed(2),
		UtilizationPercent: s.UtilizationPercent.StringFixed(2),
		VarianceHours:      s.VarianceHours.StringFixed(2),
		Status:             string(s.Status),
		EventCount:         s.EventCount,
		UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
