package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/site"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
	"github.com/shopspring/decimal"
)

type GeofenceServiceImpl struct {
	transactor    database.Transactor
	siteDirectory site.Directory
	attendance.EventRepository
	tenant.SettingsRepository
}

func NewGeofenceService(
	transactor database.Transactor,
	siteDirectory site.Directory,
	eventRepo attendance.EventRepository,
	settingsRepo tenant.SettingsRepository,
) geofence.GeofenceService {
	return &GeofenceServiceImpl{
		transactor:         transactor,
		siteDirectory:      siteDirectory,
		EventRepository:    eventRepo,
		SettingsRepository: settingsRepo,
	}
}

// FindNearestSite implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) FindNearestSite(ctx context.Context, companyID string, point geo.Coordinate) (*geofence.NearestSite, error) {
	if err := point.Validate(); err != nil {
		return nil, geofence.ErrInvalidCoordinate
	}

	sites, err := s.siteDirectory.GetActiveByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sites: %w", err)
	}

	var nearest *geofence.NearestSite
	for _, candidate := range sites {
		distance := geo.Distance(point, candidate.Center())
		if nearest == nil || closer(candidate, distance, *nearest) {
			nearest = &geofence.NearestSite{Site: candidate, DistanceMeters: distance}
		}
	}

	return nearest, nil
}

func closer(candidate site.Site, distance decimal.Decimal, current geofence.NearestSite) bool {
	if cmp := distance.Cmp(current.DistanceMeters); cmp != 0 {
		return cmp < 0
	}
	if candidate.Name != current.Site.Name {
		return candidate.Name < current.Site.Name
	}
	return candidate.ID < current.Site.ID
}

// IsWithinGeofence implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) IsWithinGeofence(ctx context.Context, companyID string, siteID string, point geo.Coordinate) (bool, error) {
	if err := point.Validate(); err != nil {
		return false, geofence.ErrInvalidCoordinate
	}

	target, err := s.siteDirectory.GetByID(ctx, siteID, companyID)
	if err != nil {
		if errors.Is(err, site.ErrSiteNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get site: %w", err)
	}
	if !target.IsActive {
		return false, nil
	}

	cfg, err := s.SettingsRepository.GetConfig(ctx, companyID)
	if err != nil {
		return false, fmt.Errorf("failed to get tenant config: %w", err)
	}

	distance := geo.Distance(point, target.Center())
	return distance.LessThanOrEqual(target.Radius(cfg.GeofenceRadiusMeters)), nil
}

// CheckForNoise implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) CheckForNoise(ctx context.Context, companyID string, event attendance.PresenceEvent) (geofence.NoiseResult, error) {
	// Only a repeated arrival can be noise; an Exit closes a session and is never dropped.
	if event.Kind != attendance.EventKindEnter {
		return geofence.NoiseResult{}, nil
	}

	cfg, err := s.SettingsRepository.GetConfig(ctx, companyID)
	if err != nil {
		return geofence.NoiseResult{}, fmt.Errorf("failed to get tenant config: %w", err)
	}

	start, end := cfg.DayBounds(cfg.LocalDate(event.OccurredAt))
	first, err := s.EventRepository.GetFirstEnterOfDay(ctx, event.EmployeeID, start, end, companyID)
	if err != nil {
		return geofence.NoiseResult{}, fmt.Errorf("failed to get first entry of day: %w", err)
	}
	if first == nil || first.ID == event.ID || !precedes(*first, event) {
		return geofence.NoiseResult{}, nil
	}

	result := geofence.NoiseResult{FirstEntryID: &first.ID}

	eventPoint, ok := event.Coordinate()
	if !ok {
		return result, nil
	}
	firstPoint, ok := first.Coordinate()
	if !ok {
		return result, nil
	}

	distance := geo.Distance(eventPoint, firstPoint)
	result.DistanceMeters = &distance
	result.IsNoise = distance.LessThan(cfg.NoiseThresholdMeters)

	return result, nil
}

// precedes reports whether a happened strictly before b, using the ID to order equal instants.
func precedes(a, b attendance.PresenceEvent) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return a.ID < b.ID
}

// ClassifyEvent implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) ClassifyEvent(ctx context.Context, companyID string, eventID string) (geofence.NoiseResult, error) {
	event, err := s.EventRepository.GetByID(ctx, eventID, companyID)
	if err != nil {
		return geofence.NoiseResult{}, err
	}
	if event.IsNoise {
		return storedNoise(event), nil
	}

	cfg, err := s.SettingsRepository.GetConfig(ctx, companyID)
	if err != nil {
		return geofence.NoiseResult{}, fmt.Errorf("failed to get tenant config: %w", err)
	}

	// Classification shares the day lock with daily processing, so a flag never lands
	// between a run's read and its summary write.
	var result geofence.NoiseResult
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.EventRepository.LockDay(txCtx, companyID, cfg.LocalDate(event.OccurredAt)); err != nil {
			return err
		}

		current, err := s.EventRepository.GetByID(txCtx, eventID, companyID)
		if err != nil {
			return err
		}
		if current.IsNoise {
			result = storedNoise(current)
			return nil
		}

		result, err = s.CheckForNoise(txCtx, companyID, current)
		if err != nil {
			return err
		}
		if !result.IsNoise {
			return nil
		}

		if err := s.EventRepository.MarkNoise(txCtx, current.ID, *result.DistanceMeters, companyID); err != nil {
			return fmt.Errorf("failed to mark event as noise: %w", err)
		}

		slog.Info("Presence event flagged as noise",
			"company_id", companyID,
			"event_id", current.ID,
			"employee_id", current.EmployeeID,
			"distance_meters", result.DistanceMeters.String(),
		)
		return nil
	})
	if err != nil {
		return geofence.NoiseResult{}, err
	}

	return result, nil
}

func storedNoise(event attendance.PresenceEvent) geofence.NoiseResult {
	return geofence.NoiseResult{IsNoise: true, DistanceMeters: event.NoiseDistanceMeters}
}
