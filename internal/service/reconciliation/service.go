package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/reconciliation"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/schedule"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/site"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"golang.org/x/sync/errgroup"
)

const startTimeLayout = "15:04"

type ReconciliationServiceImpl struct {
	employeeDirectory employee.Directory
	siteDirectory     site.Directory
	scheduleProvider  schedule.Provider
	attendance.EventRepository
	reconciliation.SpaStore
	tenant.SettingsRepository
}

func NewReconciliationService(
	employeeDirectory employee.Directory,
	siteDirectory site.Directory,
	scheduleProvider schedule.Provider,
	eventRepo attendance.EventRepository,
	spaStore reconciliation.SpaStore,
	settingsRepo tenant.SettingsRepository,
) reconciliation.ReconciliationService {
	return &ReconciliationServiceImpl{
		employeeDirectory:  employeeDirectory,
		siteDirectory:      siteDirectory,
		scheduleProvider:   scheduleProvider,
		EventRepository:    eventRepo,
		SpaStore:           spaStore,
		SettingsRepository: settingsRepo,
	}
}

// Reconcile implements reconciliation.ReconciliationService.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, req reconciliation.ReconcileRequest) (reconciliation.Report, error) {
	if err := req.Validate(); err != nil {
		return reconciliation.Report{}, err
	}
	date, _ := time.Parse(tenant.DateLayout, req.Date)

	cfg, err := s.SettingsRepository.GetConfig(ctx, req.CompanyID)
	if err != nil {
		return reconciliation.Report{}, fmt.Errorf("failed to get tenant config: %w", err)
	}
	start, end := cfg.DayBounds(date)

	var (
		mappedEmployees []employee.Employee
		mappedSites     []site.Site
		tasks           []schedule.ExternalTask
		taskErr         error
		events          []attendance.PresenceEvent
		spaRecords      []reconciliation.SpaRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mappedEmployees, err = s.employeeDirectory.GetMapped(gctx, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get mapped employees: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mappedSites, err = s.siteDirectory.GetMapped(gctx, req.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get mapped sites: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Feed failures are reported separately so they do not cancel the local reads.
		tasks, taskErr = s.scheduleProvider.GetTasksForDate(gctx, date)
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = s.EventRepository.GetByDateRange(gctx, req.CompanyID, start, end)
		if err != nil {
			return fmt.Errorf("failed to get presence events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		spaRecords, err = s.SpaStore.GetForDate(gctx, req.CompanyID, date)
		if err != nil {
			return fmt.Errorf("failed to get spa records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return reconciliation.Report{}, err
	}

	report := reconciliation.Report{CompanyID: req.CompanyID, Date: date}

	var planned map[reconciliation.Key]reconciliation.PlannedAssignment
	if taskErr != nil {
		if !req.AllowPartial {
			if !errors.Is(taskErr, schedule.ErrUpstreamUnavailable) {
				taskErr = fmt.Errorf("%w: %w", schedule.ErrUpstreamUnavailable, taskErr)
			}
			return reconciliation.Report{}, taskErr
		}
		slog.Warn("Schedule feed unavailable, reporting actual arrivals only",
			"company_id", req.CompanyID,
			"date", req.Date,
			"error", taskErr,
		)
		report.Degraded = true
	} else {
		planned = BuildPlannedSet(cfg, date, tasks, mappedEmployees, mappedSites)
	}

	actual := BuildActualSet(events)

	employees := make(map[string]employee.Employee, len(mappedEmployees))
	for _, e := range mappedEmployees {
		employees[e.ID] = e
	}
	sites := make(map[string]site.Site, len(mappedSites))
	for _, st := range mappedSites {
		sites[st.ID] = st
	}
	if err := s.resolveMissing(ctx, req.CompanyID, actual, employees, sites); err != nil {
		return reconciliation.Report{}, err
	}

	report.Entries = Merge(planned, actual, employees, sites, FirstSpaByKey(spaRecords))
	report.Totals = CountTotals(report.Entries)

	slog.Debug("Reconciled schedule against arrivals",
		"company_id", req.CompanyID,
		"date", req.Date,
		"degraded", report.Degraded,
		"planned", report.Totals.PlannedCount,
		"arrived", report.Totals.ArrivedCount,
		"unplanned", report.Totals.UnplannedCount,
	)

	return report, nil
}

// resolveMissing loads metadata for actual-set employees and sites that are not mapped to the
// schedule feed. Rows that still cannot be resolved keep empty names.
func (s *ReconciliationServiceImpl) resolveMissing(
	ctx context.Context,
	companyID string,
	actual map[reconciliation.Key]time.Time,
	employees map[string]employee.Employee,
	sites map[string]site.Site,
) error {
	var employeeIDs, siteIDs []string
	seenEmployees := make(map[string]struct{})
	seenSites := make(map[string]struct{})
	for key := range actual {
		if _, ok := employees[key.EmployeeID]; !ok {
			if _, seen := seenEmployees[key.EmployeeID]; !seen {
				seenEmployees[key.EmployeeID] = struct{}{}
				employeeIDs = append(employeeIDs, key.EmployeeID)
			}
		}
		if _, ok := sites[key.SiteID]; !ok {
			if _, seen := seenSites[key.SiteID]; !seen {
				seenSites[key.SiteID] = struct{}{}
				siteIDs = append(siteIDs, key.SiteID)
			}
		}
	}
	sort.Strings(employeeIDs)
	sort.Strings(siteIDs)

	var (
		extraEmployees []employee.Employee
		extraSites     []site.Site
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(employeeIDs) > 0 {
		g.Go(func() error {
			var err error
			extraEmployees, err = s.employeeDirectory.GetByIDs(gctx, employeeIDs, companyID)
			if err != nil {
				return fmt.Errorf("failed to get employees: %w", err)
			}
			return nil
		})
	}
	if len(siteIDs) > 0 {
		g.Go(func() error {
			var err error
			extraSites, err = s.siteDirectory.GetByIDs(gctx, siteIDs, companyID)
			if err != nil {
				return fmt.Errorf("failed to get sites: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range extraEmployees {
		employees[e.ID] = e
	}
	for _, st := range extraSites {
		sites[st.ID] = st
	}
	return nil
}

// BuildPlannedSet maps feed tasks onto (employee, site) keys. Tasks are taken in feed order and
// the first task for a key wins. Tasks whose assignee or project is not mapped, or whose
// dates cannot be parsed, are skipped.
func BuildPlannedSet(
	cfg tenant.Config,
	date time.Time,
	tasks []schedule.ExternalTask,
	mappedEmployees []employee.Employee,
	mappedSites []site.Site,
) map[reconciliation.Key]reconciliation.PlannedAssignment {
	employeeByPerson := make(map[int64]string, len(mappedEmployees))
	for _, e := range mappedEmployees {
		if e.ExternalPersonID == nil {
			continue
		}
		if _, ok := employeeByPerson[*e.ExternalPersonID]; !ok {
			employeeByPerson[*e.ExternalPersonID] = e.ID
		}
	}
	siteByProject := make(map[int64]string, len(mappedSites))
	for _, st := range mappedSites {
		if st.ExternalProjectID == nil {
			continue
		}
		if _, ok := siteByProject[*st.ExternalProjectID]; !ok {
			siteByProject[*st.ExternalProjectID] = st.ID
		}
	}

	planned := make(map[reconciliation.Key]reconciliation.PlannedAssignment)
	for _, task := range tasks {
		if task.ProjectID == nil {
			continue
		}
		siteID, ok := siteByProject[*task.ProjectID]
		if !ok {
			continue
		}

		arrival, err := PlannedArrival(cfg, date, task)
		if err != nil {
			slog.Warn("Skipping schedule task",
				"company_id", cfg.CompanyID,
				"task_id", task.TaskID,
				"error", err,
			)
			continue
		}

		for _, personID := range task.Assignees() {
			employeeID, ok := employeeByPerson[personID]
			if !ok {
				continue
			}
			key := reconciliation.Key{EmployeeID: employeeID, SiteID: siteID}
			if _, exists := planned[key]; exists {
				continue
			}
			planned[key] = reconciliation.PlannedAssignment{
				Key:            key,
				PlannedArrival: arrival,
				TaskID:         task.TaskID,
			}
		}
	}

	return planned
}

// PlannedArrival returns the instant an assignee is expected on site on date. Tasks that
// started on an earlier day are expected at their start time on date; tasks without a start
// time are expected at the start of the day.
func PlannedArrival(cfg tenant.Config, date time.Time, task schedule.ExternalTask) (time.Time, error) {
	startDate, err := time.Parse(tenant.DateLayout, task.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q", task.StartDate)
	}
	if startDate.After(date) {
		return time.Time{}, fmt.Errorf("task starts after %s", date.Format(tenant.DateLayout))
	}
	if task.EndDate != "" {
		endDate, err := time.Parse(tenant.DateLayout, task.EndDate)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid end date %q", task.EndDate)
		}
		if endDate.Before(date) {
			return time.Time{}, fmt.Errorf("task ends before %s", date.Format(tenant.DateLayout))
		}
	}

	hour, minute := 0, 0
	if task.StartTime != "" {
		clock, err := time.Parse(startTimeLayout, task.StartTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid start time %q", task.StartTime)
		}
		hour, minute = clock.Hour(), clock.Minute()
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, cfg.Location()), nil
}

// BuildActualSet keeps the earliest non-noise Enter per (employee, site).
func BuildActualSet(events []attendance.PresenceEvent) map[reconciliation.Key]time.Time {
	actual := make(map[reconciliation.Key]time.Time)
	for _, e := range events {
		if e.IsNoise || e.Kind != attendance.EventKindEnter {
			continue
		}
		key := reconciliation.Key{EmployeeID: e.EmployeeID, SiteID: e.SiteID}
		if current, ok := actual[key]; !ok || e.OccurredAt.Before(current) {
			actual[key] = e.OccurredAt
		}
	}
	return actual
}

// FirstSpaByKey keeps the first SPA record per (employee, site) in store order.
func FirstSpaByKey(records []reconciliation.SpaRecord) map[reconciliation.Key]reconciliation.SpaRecord {
	spa := make(map[reconciliation.Key]reconciliation.SpaRecord, len(records))
	for _, r := range records {
		key := reconciliation.Key{EmployeeID: r.EmployeeID, SiteID: r.SiteID}
		if _, ok := spa[key]; !ok {
			spa[key] = r
		}
	}
	return spa
}

// Merge classifies the union of planned and actual keys and returns the sorted report rows.
func Merge(
	planned map[reconciliation.Key]reconciliation.PlannedAssignment,
	actual map[reconciliation.Key]time.Time,
	employees map[string]employee.Employee,
	sites map[string]site.Site,
	spa map[reconciliation.Key]reconciliation.SpaRecord,
) []reconciliation.Entry {
	keys := make(map[reconciliation.Key]struct{}, len(planned)+len(actual))
	for key := range planned {
		keys[key] = struct{}{}
	}
	for key := range actual {
		keys[key] = struct{}{}
	}

	entries := make([]reconciliation.Entry, 0, len(keys))
	for key := range keys {
		entry := reconciliation.Entry{
			EmployeeID:   key.EmployeeID,
			EmployeeName: employees[key.EmployeeID].FullName,
			SiteID:       key.SiteID,
			SiteName:     sites[key.SiteID].Name,
			SiteCode:     sites[key.SiteID].Code,
		}

		p, isPlanned := planned[key]
		a, isActual := actual[key]
		if isPlanned {
			arrival := p.PlannedArrival
			entry.PlannedArrival = &arrival
		}
		if isActual {
			arrival := a
			entry.ActualArrival = &arrival
		}

		switch {
		case isPlanned && isActual:
			entry.Status = reconciliation.StatusArrived
		case isPlanned:
			entry.Status = reconciliation.StatusPlanned
		default:
			entry.Status = reconciliation.StatusUnplanned
		}

		if record, ok := spa[key]; ok {
			id := record.ID
			entry.SpaID = &id
			entry.SpaCompleted = record.Completed
			entry.SpaImageURL = record.ImageURL
		}

		entries = append(entries, entry)
	}

	SortEntries(entries)
	return entries
}

// SortEntries orders rows by status rank, site name, employee name, site ID and employee ID.
func SortEntries(entries []reconciliation.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		if a.SiteName != b.SiteName {
			return a.SiteName < b.SiteName
		}
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		if a.SiteID != b.SiteID {
			return a.SiteID < b.SiteID
		}
		return a.EmployeeID < b.EmployeeID
	})
}

// CountTotals counts rows per status; the three counts always add up to len(entries).
func CountTotals(entries []reconciliation.Entry) reconciliation.Totals {
	var totals reconciliation.Totals
	for _, e := range entries {
		switch e.Status {
		case reconciliation.StatusArrived:
			totals.ArrivedCount++
		case reconciliation.StatusPlanned:
			totals.PlannedCount++
		case reconciliation.StatusUnplanned:
			totals.UnplannedCount++
		}
	}
	return totals
}
