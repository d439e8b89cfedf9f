package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

func testConfig() tenant.Config {
	return tenant.DefaultConfig(testCompanyID, tenant.Defaults{
		Timezone:             "UTC",
		GeofenceRadiusMeters: decimal.NewFromInt(100),
		NoiseThresholdMeters: decimal.NewFromInt(50),
		ExpectedHoursPerDay:  decimal.NewFromInt(8),
	})
}

func at(clock string) time.Time {
	t, err := time.Parse(time.RFC3339, "2024-01-15T"+clock+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func event(id, employeeID, siteID string, kind attendance.EventKind, occurredAt time.Time) attendance.PresenceEvent {
	return attendance.PresenceEvent{
		ID:            id,
		CompanyID:     testCompanyID,
		EmployeeID:    employeeID,
		SiteID:        siteID,
		Kind:          kind,
		OccurredAt:    occurredAt,
		TriggerMethod: attendance.TriggerMethodAutomatic,
		CreatedAt:     occurredAt,
	}
}

func enter(id string, clock string) attendance.PresenceEvent {
	return event(id, "emp-1", "site-1", attendance.EventKindEnter, at(clock))
}

func exit(id string, clock string) attendance.PresenceEvent {
	return event(id, "emp-1", "site-1", attendance.EventKindExit, at(clock))
}

func newTestService(events []attendance.PresenceEvent, cfg tenant.Config) (*AttendanceServiceImpl, *fakeEventRepo, *fakeSummaryRepo) {
	eventRepo := &fakeEventRepo{events: events}
	summaryRepo := newFakeSummaryRepo()
	settingsRepo := &fakeSettingsRepo{configs: map[string]tenant.Config{cfg.CompanyID: cfg}}

	svc := NewAttendanceService(&fakeTransactor{}, eventRepo, summaryRepo, settingsRepo).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return at("23:00") }
	return svc, eventRepo, summaryRepo
}

// ===== TIME ON SITE =====

func TestTimeOnSite_PairsEnterExit(t *testing.T) {
	events := []attendance.PresenceEvent{
		enter("e1", "08:00"),
		exit("e2", "12:00"),
		enter("e3", "13:00"),
		exit("e4", "17:00"),
	}

	session := TimeOnSite(events, at("17:00"))

	assert.Equal(t, 8*time.Hour, session.TimeOnSite)
	assert.False(t, session.Open)
	assert.Equal(t, 2, session.EnterCount)
	require.NotNil(t, session.FirstEntryAt)
	require.NotNil(t, session.LastExitAt)
	assert.Equal(t, at("08:00"), *session.FirstEntryAt)
	assert.Equal(t, at("17:00"), *session.LastExitAt)
}

func TestTimeOnSite_UnorderedInput(t *testing.T) {
	events := []attendance.PresenceEvent{
		exit("e4", "17:00"),
		enter("e3", "13:00"),
		exit("e2", "12:00"),
		enter("e1", "08:00"),
	}

	session := TimeOnSite(events, at("17:00"))

	assert.Equal(t, 8*time.Hour, session.TimeOnSite)
}

func TestTimeOnSite_RepeatedEnterKeepsFirst(t *testing.T) {
	events := []attendance.PresenceEvent{
		enter("e1", "08:00"),
		enter("e2", "09:00"),
		exit("e3", "12:00"),
	}

	session := TimeOnSite(events, at("12:00"))

	assert.Equal(t, 4*time.Hour, session.TimeOnSite)
	assert.False(t, session.Open)
}

func TestTimeOnSite_ExitWithoutEnterIgnored(t *testing.T) {
	events := []attendance.PresenceEvent{
		exit("e1", "07:00"),
		enter("e2", "08:00"),
		exit("e3", "10:00"),
		exit("e4", "11:00"),
	}

	session := TimeOnSite(events, at("11:00"))

	assert.Equal(t, 2*time.Hour, session.TimeOnSite)
	require.NotNil(t, session.LastExitAt)
	assert.Equal(t, at("10:00"), *session.LastExitAt)
}

func TestTimeOnSite_NoiseIgnored(t *testing.T) {
	noisy := exit("e2", "09:00")
	noisy.IsNoise = true
	events := []attendance.PresenceEvent{
		enter("e1", "08:00"),
		noisy,
		exit("e3", "12:00"),
	}

	session := TimeOnSite(events, at("12:00"))

	assert.Equal(t, 4*time.Hour, session.TimeOnSite)
}

func TestTimeOnSite_OpenSessionTruncatedAtCutoff(t *testing.T) {
	events := []attendance.PresenceEvent{
		enter("e1", "08:00"),
		exit("e2", "10:00"),
		enter("e3", "13:00"),
	}

	session := TimeOnSite(events, at("15:00"))

	assert.True(t, session.Open)
	assert.Equal(t, 4*time.Hour, session.TimeOnSite)
}

func TestTimeOnSite_CutoffBeforeOpenContributesZero(t *testing.T) {
	session := TimeOnSite([]attendance.PresenceEvent{enter("e1", "08:00")}, at("07:00"))

	assert.True(t, session.Open)
	assert.Equal(t, time.Duration(0), session.TimeOnSite)
}

func TestTimeOnSite_SameInstantEnterExit(t *testing.T) {
	events := []attendance.PresenceEvent{
		exit("e2", "08:00"),
		enter("e1", "08:00"),
	}

	session := TimeOnSite(events, at("08:00"))

	assert.False(t, session.Open)
	assert.Equal(t, time.Duration(0), session.TimeOnSite)
}

func TestSessionCutoff_Policies(t *testing.T) {
	cfg := testConfig()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	events := []attendance.PresenceEvent{enter("e1", "08:00"), exit("e2", "10:00"), enter("e3", "13:00")}

	assert.Equal(t, at("13:00"), SessionCutoff(cfg, events, date, at("23:00")))

	cfg.OpenSessionPolicy = tenant.OpenSessionDayEnd
	assert.Equal(t, at("20:00"), SessionCutoff(cfg, events, date, at("20:00")))
	assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), SessionCutoff(cfg, events, date, at("23:00").Add(48*time.Hour)))
}

// ===== CALENDAR =====

func TestWorkingDaysBetween(t *testing.T) {
	cfg := testConfig()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	to := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)   // Sunday

	assert.Equal(t, 5, WorkingDaysBetween(cfg, from, to))

	cfg.Holidays = map[string]string{"2024-01-01": "New Year's Day"}
	assert.Equal(t, 4, WorkingDaysBetween(cfg, from, to))

	cfg.IncludeWeekends = true
	assert.Equal(t, 6, WorkingDaysBetween(cfg, from, to))

	assert.Equal(t, 0, WorkingDaysBetween(cfg, to, from))
}

func TestIsWorkingDay_Weekend(t *testing.T) {
	cfg := testConfig()

	assert.False(t, IsWorkingDay(cfg, time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWorkingDay(cfg, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
}

// ===== UTILIZATION =====

func TestUtilization(t *testing.T) {
	tests := []struct {
		name     string
		actual   string
		expected string
		want     string
	}{
		{"zero expected", "0", "0", "0"},
		{"negative expected", "4", "-1", "0"},
		{"half", "50", "100", "50"},
		{"over target", "9", "8", "112.5"},
		{"rounded", "1", "3", "33.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Utilization(decimal.RequireFromString(tt.actual), decimal.RequireFromString(tt.expected))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

// ===== SERVICE =====

func TestAttendanceService_ProcessDailyAttendance_Success(t *testing.T) {
	ctx := context.Background()
	events := []attendance.PresenceEvent{
		enter("e1", "08:00"),
		exit("e2", "12:00"),
		enter("e3", "13:00"),
		exit("e4", "17:00"),
		event("e5", "emp-2", "site-1", attendance.EventKindEnter, at("09:00")),
		event("e6", "emp-2", "site-1", attendance.EventKindExit, at("15:00")),
	}
	svc, eventRepo, summaryRepo := newTestService(events, testConfig())

	result, err := svc.ProcessDailyAttendance(ctx, attendance.ProcessDailyRequest{
		CompanyID: testCompanyID,
		Date:      "2024-01-15",
	})

	require.NoError(t, err)
	assert.Equal(t, 6, result.EventsProcessed)
	assert.Equal(t, 2, result.SummariesCreated)
	assert.Equal(t, 0, result.SummariesUpdated)

	full, ok := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	require.True(t, ok)
	assert.Equal(t, 480, full.TimeOnSiteMinutes)
	assert.Equal(t, "8.00", full.ActualHours.StringFixed(2))
	assert.Equal(t, "100.00", full.UtilizationPercent.StringFixed(2))
	assert.Equal(t, attendance.SummaryStatusExcellent, full.Status)
	assert.Equal(t, 4, full.EventCount)

	partial, ok := summaryRepo.get(testCompanyID, "emp-2", "site-1", "2024-01-15")
	require.True(t, ok)
	assert.Equal(t, "75.00", partial.UtilizationPercent.StringFixed(2))
	assert.Equal(t, "-2.00", partial.VarianceHours.StringFixed(2))
	assert.Equal(t, attendance.SummaryStatusBelowTarget, partial.Status)

	for _, e := range eventRepo.events {
		assert.NotNil(t, e.SummarizedAt, "event %s should be summarized", e.ID)
	}
}

func TestAttendanceService_ProcessDailyAttendance_Idempotent(t *testing.T) {
	ctx := context.Background()
	events := []attendance.PresenceEvent{enter("e1", "08:00"), exit("e2", "15:00")}
	svc, _, summaryRepo := newTestService(events, testConfig())
	req := attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"}

	first, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	before, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")

	second, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	after, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")

	assert.Equal(t, 2, first.EventsProcessed)
	assert.Equal(t, 0, second.EventsProcessed)
	assert.Equal(t, 0, second.SummariesCreated)
	assert.Equal(t, 0, second.SummariesUpdated)
	assert.Equal(t, before, after)
	assert.Len(t, summaryRepo.rows, 1)
	assert.Equal(t, attendance.SummaryStatusGood, after.Status)
}

func TestAttendanceService_ProcessDailyAttendance_LateEventRecomputesPair(t *testing.T) {
	ctx := context.Background()
	svc, eventRepo, summaryRepo := newTestService([]attendance.PresenceEvent{enter("e1", "08:00")}, testConfig())
	req := attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"}

	_, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	open, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	assert.Equal(t, attendance.SummaryStatusIncomplete, open.Status)
	assert.Equal(t, 0, open.TimeOnSiteMinutes)

	eventRepo.events = append(eventRepo.events, exit("e2", "16:00"))
	result, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)

	closed, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	assert.Equal(t, 1, result.EventsProcessed)
	assert.Equal(t, 1, result.SummariesUpdated)
	assert.Equal(t, 480, closed.TimeOnSiteMinutes)
	assert.Equal(t, attendance.SummaryStatusExcellent, closed.Status)
	assert.Equal(t, open.ID, closed.ID)
}

func TestAttendanceService_ProcessDailyAttendance_Reprocess(t *testing.T) {
	ctx := context.Background()
	svc, _, summaryRepo := newTestService([]attendance.PresenceEvent{enter("e1", "08:00"), exit("e2", "12:00")}, testConfig())
	req := attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"}

	_, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)

	req.Reprocess = true
	result, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 0, result.EventsProcessed)
	assert.Equal(t, 1, result.SummariesUpdated)
	assert.Equal(t, 2, summaryRepo.upserts)
}

func TestAttendanceService_ProcessDailyAttendance_WeekendIsExcellent(t *testing.T) {
	ctx := context.Background()
	saturday := []attendance.PresenceEvent{
		event("e1", "emp-1", "site-1", attendance.EventKindEnter, at("08:00").AddDate(0, 0, -2)),
		event("e2", "emp-1", "site-1", attendance.EventKindExit, at("09:00").AddDate(0, 0, -2)),
	}
	svc, _, summaryRepo := newTestService(saturday, testConfig())

	_, err := svc.ProcessDailyAttendance(ctx, attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-13"})
	require.NoError(t, err)

	summary, ok := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-13")
	require.True(t, ok)
	assert.True(t, summary.ExpectedHours.IsZero())
	assert.True(t, summary.UtilizationPercent.IsZero())
	assert.Equal(t, attendance.SummaryStatusExcellent, summary.Status)
}

func TestAttendanceService_ProcessDailyAttendance_TenantTimezone(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	require.NoError(t, cfg.SetTimezone("Asia/Jakarta"))
	events := []attendance.PresenceEvent{
		// 2024-01-15 06:00 and 10:00 in Jakarta
		event("e1", "emp-1", "site-1", attendance.EventKindEnter, at("08:00").Add(-9*time.Hour)),
		event("e2", "emp-1", "site-1", attendance.EventKindExit, at("08:00").Add(-5*time.Hour)),
		// 2024-01-16 02:00 in Jakarta
		event("e3", "emp-1", "site-1", attendance.EventKindEnter, at("19:00")),
	}
	svc, _, summaryRepo := newTestService(events, cfg)

	result, err := svc.ProcessDailyAttendance(ctx, attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.EventsProcessed)
	summary, ok := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	require.True(t, ok)
	assert.Equal(t, 240, summary.TimeOnSiteMinutes)
}

func TestAttendanceService_ProcessDailyAttendance_NoEvents(t *testing.T) {
	svc, _, summaryRepo := newTestService(nil, testConfig())

	result, err := svc.ProcessDailyAttendance(context.Background(), attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"})

	require.NoError(t, err)
	assert.Equal(t, attendance.ProcessResult{Date: "2024-01-15"}, result)
	assert.Empty(t, summaryRepo.rows)
}

func TestAttendanceService_ProcessDailyAttendance_InvalidDate(t *testing.T) {
	svc, _, _ := newTestService(nil, testConfig())

	_, err := svc.ProcessDailyAttendance(context.Background(), attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "15-01-2024"})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date")
}

func TestAttendanceService_WorkingDays_Success(t *testing.T) {
	svc, _, _ := newTestService(nil, testConfig())

	resp, err := svc.WorkingDays(context.Background(), attendance.WorkingDaysRequest{
		CompanyID: testCompanyID,
		From:      "2024-01-01",
		To:        "2024-01-31",
	})

	require.NoError(t, err)
	assert.Equal(t, 23, resp.WorkingDays)
	assert.Equal(t, "184.00", resp.ExpectedHours)
}

func TestAttendanceService_WorkingDays_InvalidRange(t *testing.T) {
	svc, _, _ := newTestService(nil, testConfig())

	_, err := svc.WorkingDays(context.Background(), attendance.WorkingDaysRequest{
		CompanyID: testCompanyID,
		From:      "2024-02-01",
		To:        "2024-01-01",
	})

	assert.ErrorIs(t, err, attendance.ErrInvalidDateRange)
}

func TestAttendanceService_ListDailySummaries_Success(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService([]attendance.PresenceEvent{enter("e1", "08:00"), exit("e2", "12:00")}, testConfig())

	_, err := svc.ProcessDailyAttendance(ctx, attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"})
	require.NoError(t, err)

	list, err := svc.ListDailySummaries(ctx, attendance.ListDailySummaryRequest{CompanyID: testCompanyID, Date: "2024-01-15"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "4.00", list[0].ActualHours)
	assert.Equal(t, "50.00", list[0].UtilizationPercent)
	assert.Equal(t, "BelowTarget", list[0].Status)
	require.NotNil(t, list[0].FirstEntryAt)
	assert.Equal(t, "2024-01-15T08:00:00Z", *list[0].FirstEntryAt)
}

func TestAttendanceService_ProcessDailyAttendance_ConcurrentRunKeepsLateEvent(t *testing.T) {
	ctx := context.Background()
	svc, eventRepo, summaryRepo := newTestService([]attendance.PresenceEvent{enter("e1", "08:00")}, testConfig())
	req := attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"}

	// The first run has already read its events when e2 arrives and a second run starts.
	second := make(chan error, 1)
	var once sync.Once
	eventRepo.afterRead = func() {
		once.Do(func() {
			eventRepo.add(exit("e2", "16:00"))
			go func() {
				_, err := svc.ProcessDailyAttendance(ctx, req)
				second <- err
			}()
		})
	}

	first, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EventsProcessed)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second run did not finish")
	}

	summary, ok := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	require.True(t, ok)
	assert.Equal(t, 2, summary.EventCount)
	assert.Equal(t, 480, summary.TimeOnSiteMinutes)

	late, err := eventRepo.GetByID(ctx, "e2", testCompanyID)
	require.NoError(t, err)
	assert.NotNil(t, late.SummarizedAt)
}

func TestAttendanceService_ProcessDailyAttendance_NoiseFlagRefoldsPair(t *testing.T) {
	ctx := context.Background()
	svc, eventRepo, summaryRepo := newTestService([]attendance.PresenceEvent{
		enter("e1", "09:00"),
		exit("e2", "12:00"),
		enter("e3", "13:00"),
		exit("e4", "17:00"),
	}, testConfig())
	req := attendance.ProcessDailyRequest{CompanyID: testCompanyID, Date: "2024-01-15"}

	_, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	before, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	assert.Equal(t, 420, before.TimeOnSiteMinutes)

	require.NoError(t, eventRepo.MarkNoise(ctx, "e3", decimal.NewFromInt(12), testCompanyID))

	result, err := svc.ProcessDailyAttendance(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EventsProcessed)
	assert.Equal(t, 1, result.SummariesUpdated)

	after, _ := summaryRepo.get(testCompanyID, "emp-1", "site-1", "2024-01-15")
	assert.Equal(t, 180, after.TimeOnSiteMinutes)
	assert.Equal(t, before.ID, after.ID)
}
