package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/internal/logger"
	"tidbyt.dev/gtfslite/model"
)

const DefaultInterval = 60

type handler struct {
	feed *gtfslite.Feed
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type DateResponse struct {
	Date     string   `json:"date"`
	Valid    bool     `json:"valid"`
	Services []string `json:"services"`
}

type TripResponse struct {
	TripID      string `json:"trip_id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	Headsign    string `json:"headsign,omitempty"`
	DirectionID int8   `json:"direction_id"`
}

type TripsResponse struct {
	Date  string         `json:"date"`
	Trips []TripResponse `json:"trips"`
	Count int            `json:"count"`
}

type ServiceHoursResponse struct {
	Date  string  `json:"date"`
	Field string  `json:"field"`
	Hours float64 `json:"hours"`
}

type DistributionResponse struct {
	Start  string                 `json:"start"`
	End    string                 `json:"end"`
	Counts gtfslite.WeekdayCounts `json:"counts"`
	Total  int                    `json:"total"`
}

type StopTripsResponse struct {
	Trips []gtfslite.StopTrip `json:"trips"`
	Count int                 `json:"count"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if h.feed.Metadata != nil {
		resp["feed_url"] = h.feed.Metadata.URL
		resp["feed_hash"] = h.feed.Metadata.Hash
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Summary())
}

func (h *handler) date(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := model.ParseDate(date); err != nil {
		writeError(w, r, fmt.Errorf("%w: %s", gtfslite.ErrInvalidArgument, err))
		return
	}

	writeJSON(w, http.StatusOK, DateResponse{
		Date:     date,
		Valid:    h.feed.IsValidDate(date),
		Services: h.feed.ActiveServices(date),
	})
}

func (h *handler) dateTrips(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	trips, err := h.feed.ActiveTrips(date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := TripsResponse{
		Date:  date,
		Trips: make([]TripResponse, 0, len(trips)),
		Count: len(trips),
	}
	for _, trip := range trips {
		resp.Trips = append(resp.Trips, TripResponse{
			TripID:      trip.ID,
			RouteID:     trip.RouteID,
			ServiceID:   trip.ServiceID,
			Headsign:    trip.Headsign,
			DirectionID: trip.DirectionID,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) stopSummary(w http.ResponseWriter, r *http.Request) {
	date, err := requiredParam(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.feed.StopSummary(chi.URLParam(r, "stopID"), date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) routes(w http.ResponseWriter, r *http.Request) {
	date, err := requiredParam(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := h.feed.RoutesSummary(date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *handler) routeSummary(w http.ResponseWriter, r *http.Request) {
	date, err := requiredParam(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := h.feed.RouteSummary(chi.URLParam(r, "routeID"), date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) serviceHours(w http.ResponseWriter, r *http.Request) {
	q, err := parseWindowQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hours, err := h.feed.ServiceHours(q.date, q.start, q.end, q.field)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ServiceHoursResponse{
		Date:  q.date,
		Field: q.field.String(),
		Hours: hours,
	})
}

func (h *handler) frequency(w http.ResponseWriter, r *http.Request) {
	q, err := parseWindowQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	interval := DefaultInterval
	if s := r.URL.Query().Get("interval"); s != "" {
		interval, err = strconv.Atoi(s)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: interval '%s'", gtfslite.ErrInvalidArgument, s))
			return
		}
	}

	bins, err := h.feed.RouteFrequencyMatrix(q.date, interval, q.start, q.end, q.field)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bins)
}

func (h *handler) distribution(w http.ResponseWriter, r *http.Request) {
	start, err := requiredParam(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := requiredParam(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}

	counts, err := h.feed.TripDistribution(start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DistributionResponse{
		Start:  start,
		End:    end,
		Counts: counts,
		Total:  counts.Total(),
	})
}

func (h *handler) stopTrips(w http.ResponseWriter, r *http.Request) {
	stops, err := requiredParam(r, "stops")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q, err := parseWindowQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trips, err := h.feed.TripsAtStops(strings.Split(stops, ","), q.date, q.start, q.end, q.field)
	if err != nil {
		writeError(w, r, err)
		return
	}

	count := 0
	for _, trip := range trips {
		count += trip.Count
	}

	writeJSON(w, http.StatusOK, StopTripsResponse{
		Trips: trips,
		Count: count,
	})
}

// The date, time window and time field shared by several endpoints.
type windowQuery struct {
	date  string
	start model.Time
	end   model.Time
	field gtfslite.TimeField
}

func parseWindowQuery(r *http.Request) (*windowQuery, error) {
	date, err := requiredParam(r, "date")
	if err != nil {
		return nil, err
	}

	query := r.URL.Query()

	start, err := model.ParseOptionalTime(query.Get("start"))
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := model.ParseOptionalTime(query.Get("end"))
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	field, err := gtfslite.ParseTimeField(query.Get("field"))
	if err != nil {
		return nil, err
	}

	return &windowQuery{date: date, start: start, end: end, field: field}, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return "", fmt.Errorf("%w: missing parameter '%s'", gtfslite.ErrInvalidArgument, name)
	}
	return value, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, gtfslite.ErrDateNotValid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gtfslite.ErrUnknownReference):
		return http.StatusNotFound
	case errors.Is(err, gtfslite.ErrInvalidArgument),
		errors.Is(err, gtfslite.ErrInvalidTimeFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
	}

	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		RequestID: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logger.Warn("writing response", "error", err)
	}
}
