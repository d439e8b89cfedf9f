package http

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/geofence"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type GeofenceHandler interface {
	NearestSite(w http.ResponseWriter, r *http.Request)
	Contains(w http.ResponseWriter, r *http.Request)
	ClassifyEvent(w http.ResponseWriter, r *http.Request)
}

type geofenceHandlerImpl struct {
	geofenceService geofence.GeofenceService
}

func NewGeofenceHandler(geofenceService geofence.GeofenceService) GeofenceHandler {
	return &geofenceHandlerImpl{
		geofenceService: geofenceService,
	}
}

// parsePoint reads the latitude and longitude query parameters. ok is false when either is
// not a decimal number; range checks are left to PointRequest.Validate.
func parsePoint(r *http.Request, companyID string) (req geofence.PointRequest, point geo.Coordinate, ok bool) {
	query := r.URL.Query()
	req = geofence.PointRequest{
		CompanyID: companyID,
		Latitude:  query.Get("latitude"),
		Longitude: query.Get("longitude"),
	}
	point, err := req.Coordinate()
	if err != nil {
		return req, geo.Coordinate{}, false
	}
	return req, point, true
}

// NearestSite implements GeofenceHandler.
func (h *geofenceHandlerImpl) NearestSite(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	req, point, ok := parsePoint(r, companyID)
	if !ok {
		response.BadRequest(w, "latitude and longitude must be numbers", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	nearest, err := h.geofenceService.FindNearestSite(r.Context(), companyID, point)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if nearest == nil {
		response.Success(w, geofence.NearestSiteResponse{Found: false})
		return
	}

	distance := nearest.DistanceMeters.StringFixed(2)
	response.Success(w, geofence.NearestSiteResponse{
		Found:          true,
		SiteID:         &nearest.Site.ID,
		SiteName:       &nearest.Site.Name,
		SiteCode:       &nearest.Site.Code,
		DistanceMeters: &distance,
	})
}

// Contains implements GeofenceHandler.
func (h *geofenceHandlerImpl) Contains(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	siteID := chi.URLParam(r, "id")
	if !validator.IsValidUUID(siteID) {
		response.BadRequest(w, "invalid site ID", nil)
		return
	}

	req, point, ok := parsePoint(r, companyID)
	if !ok {
		response.BadRequest(w, "latitude and longitude must be numbers", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	within, err := h.geofenceService.IsWithinGeofence(r.Context(), companyID, siteID, point)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, geofence.ContainsResponse{
		SiteID:    siteID,
		Latitude:  point.Latitude.String(),
		Longitude: point.Longitude.String(),
		Within:    within,
	})
}

// ClassifyEvent implements GeofenceHandler.
func (h *geofenceHandlerImpl) ClassifyEvent(w http.ResponseWriter, r *http.Request) {
	companyID, ok := getCompanyIDFromContext(r)
	if !ok {
		response.Forbidden(w, "no company associated with this user")
		return
	}

	eventID := chi.URLParam(r, "id")
	if !validator.IsValidUUID(eventID) {
		response.BadRequest(w, "invalid event ID", nil)
		return
	}

	result, err := h.geofenceService.ClassifyEvent(r.Context(), companyID, eventID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := geofence.ClassifyEventResponse{
		EventID:      eventID,
		IsNoise:      result.IsNoise,
		FirstEntryID: result.FirstEntryID,
	}
	if result.DistanceMeters != nil {
		distance := result.DistanceMeters.StringFixed(2)
		resp.DistanceMeters = &distance
	}

	response.Success(w, resp)
}
