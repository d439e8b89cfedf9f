package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

type fakeTxKey struct{}

// fakeTx collects the unlock functions of locks taken during one transaction.
type fakeTx struct {
	releases []func()
}

type fakeTransactor struct{}

func (f *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := &fakeTx{}
	defer func() {
		for _, release := range tx.releases {
			release()
		}
	}()
	return fn(context.WithValue(ctx, fakeTxKey{}, tx))
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []attendance.PresenceEvent

	dayLocksMu sync.Mutex
	dayLocks   map[string]*sync.Mutex

	// afterRead runs once GetByDateRange has copied the matching events.
	afterRead func()
}

func (f *fakeEventRepo) add(e attendance.PresenceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeEventRepo) LockDay(ctx context.Context, companyID string, date time.Time) error {
	tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx)
	if !ok {
		return errors.New("day lock outside transaction")
	}

	key := companyID + "/" + date.Format(tenant.DateLayout)
	f.dayLocksMu.Lock()
	if f.dayLocks == nil {
		f.dayLocks = make(map[string]*sync.Mutex)
	}
	lock, ok := f.dayLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		f.dayLocks[key] = lock
	}
	f.dayLocksMu.Unlock()

	lock.Lock()
	tx.releases = append(tx.releases, lock.Unlock)
	return nil
}

func (f *fakeEventRepo) GetByDateRange(ctx context.Context, companyID string, from, to time.Time) ([]attendance.PresenceEvent, error) {
	f.mu.Lock()
	var out []attendance.PresenceEvent
	for _, e := range f.events {
		if e.CompanyID != companyID {
			continue
		}
		if e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	f.mu.Unlock()

	if f.afterRead != nil {
		f.afterRead()
	}
	return out, nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string, companyID string) (attendance.PresenceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.ID == id && e.CompanyID == companyID {
			return e, nil
		}
	}
	return attendance.PresenceEvent{}, attendance.ErrEventNotFound
}

func (f *fakeEventRepo) GetFirstEnterOfDay(ctx context.Context, employeeID string, from, to time.Time, companyID string) (*attendance.PresenceEvent, error) {
	return nil, nil
}

func (f *fakeEventRepo) MarkNoise(ctx context.Context, id string, distanceMeters decimal.Decimal, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id && f.events[i].CompanyID == companyID {
			distance := distanceMeters
			f.events[i].IsNoise = true
			f.events[i].NoiseDistanceMeters = &distance
			f.events[i].SummarizedAt = nil
			return nil
		}
	}
	return attendance.ErrEventNotFound
}

func (f *fakeEventRepo) MarkSummarized(ctx context.Context, ids []string, at time.Time, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range f.events {
		if _, ok := set[f.events[i].ID]; ok && f.events[i].CompanyID == companyID {
			stamp := at
			f.events[i].SummarizedAt = &stamp
		}
	}
	return nil
}

type summaryKey struct {
	companyID  string
	employeeID string
	siteID     string
	date       string
}

type fakeSummaryRepo struct {
	mu      sync.Mutex
	rows    map[summaryKey]attendance.DailySummary
	upserts int
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{rows: make(map[summaryKey]attendance.DailySummary)}
}

func (f *fakeSummaryRepo) Upsert(ctx context.Context, summary attendance.DailySummary) (attendance.DailySummary, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := summaryKey{summary.CompanyID, summary.EmployeeID, summary.SiteID, summary.Date.Format(tenant.DateLayout)}
	existing, ok := f.rows[key]
	if ok {
		summary.ID = existing.ID
		summary.CreatedAt = existing.CreatedAt
	} else {
		summary.ID = fmt.Sprintf("summary-%d", len(f.rows)+1)
	}
	f.rows[key] = summary
	return summary, !ok, nil
}

func (f *fakeSummaryRepo) GetByDate(ctx context.Context, companyID string, date time.Time) ([]attendance.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.DailySummary
	for key, row := range f.rows {
		if key.companyID == companyID && key.date == date.Format(tenant.DateLayout) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeSummaryRepo) get(companyID, employeeID, siteID, date string) (attendance.DailySummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[summaryKey{companyID, employeeID, siteID, date}]
	return row, ok
}

type fakeSettingsRepo struct {
	configs map[string]tenant.Config
}

func (f *fakeSettingsRepo) GetConfig(ctx context.Context, companyID string) (tenant.Config, error) {
	cfg, ok := f.configs[companyID]
	if !ok {
		return tenant.Config{}, tenant.ErrCompanyIDRequired
	}
	return cfg, nil
}

func (f *fakeSettingsRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.configs))
	for id := range f.configs {
		ids = append(ids, id)
	}
	return ids, nil
}
