package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/publish"
)

// submitRequest is the JSON body for job submission
type submitRequest struct {
	OwnerID     string   `json:"owner_id"`
	MediaRef    string   `json:"media_ref"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Platforms   []string `json:"platforms"`
	ScheduledAt string   `json:"scheduled_at,omitempty"` // RFC 3339
}

func (r *submitRequest) toPublishRequest() (publish.Request, error) {
	req := publish.Request{
		OwnerID:     r.OwnerID,
		MediaRef:    r.MediaRef,
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Platforms:   r.Platforms,
	}
	if r.ScheduledAt != "" {
		at, err := time.Parse(time.RFC3339, r.ScheduledAt)
		if err != nil {
			return req, errors.Wrap(err, "invalid scheduled_at, expected RFC 3339")
		}
		req.ScheduledAt = &at
	}
	return req, nil
}

// handleJobs serves POST /api/jobs (submit) and GET /api/jobs (list terminal)
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var body submitRequest
		if readJSON(w, r, &body) != nil {
			return
		}

		req, err := body.toPublishRequest()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		jobID, err := s.orchestrator.Submit(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})

	case http.MethodGet:
		var status *publish.Status
		if raw := r.URL.Query().Get("status"); raw != "" {
			if !publish.IsValidStatus(raw) {
				writeError(w, http.StatusBadRequest, "unknown status filter: "+raw)
				return
			}
			st := publish.Status(raw)
			status = &st
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		jobs, err := s.orchestrator.ListJobs(status, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleJob serves GET /api/jobs/{id}, POST /api/jobs/{id}/retry, and
// POST /api/jobs/{id}/cancel
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}
	jobID := parts[0]

	if len(parts) == 1 {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		job, err := s.orchestrator.GetStatus(jobID)
		if err != nil {
			s.writeJobError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
		return
	}

	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body struct {
		OwnerID string `json:"owner_id"`
	}
	if readJSON(w, r, &body) != nil {
		return
	}
	if body.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	switch parts[1] {
	case "retry":
		if err := s.orchestrator.Retry(jobID, body.OwnerID); err != nil {
			s.writeJobError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": "retrying"})
	case "cancel":
		if err := s.orchestrator.Cancel(jobID, body.OwnerID); err != nil {
			s.writeJobError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"job_id": jobID, "status": string(publish.StatusCancelled)})
	default:
		writeError(w, http.StatusNotFound, "unknown job action: "+parts[1])
	}
}

// writeJobError maps orchestrator errors onto HTTP statuses
func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errors.ErrNotCancellable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errors.ErrRetryLimitExceeded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.IsInvalidPlatformError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleSchedule serves POST /api/schedule: one deferred job per platform at
// its next optimal slot
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var body struct {
		submitRequest
		Timezone string `json:"timezone"`
		Days     int    `json:"days"`
	}
	if readJSON(w, r, &body) != nil {
		return
	}
	if body.Timezone == "" {
		body.Timezone = "UTC"
	}
	if body.Days < 0 {
		writeError(w, http.StatusBadRequest, "days must not be negative")
		return
	}

	req, err := body.toPublishRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	scheduled, err := s.orchestrator.SchedulePlatforms(req, body.Timezone, body.Days)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"scheduled": scheduled})
}

// handleCalendar serves GET /api/calendar?platforms=a,b&tz=...&days=N
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	rawPlatforms := r.URL.Query().Get("platforms")
	if rawPlatforms == "" {
		writeError(w, http.StatusBadRequest, "platforms query parameter is required")
		return
	}

	tz := r.URL.Query().Get("tz")
	if tz == "" {
		tz = "UTC"
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	calendar, err := s.orchestrator.ContentCalendar(strings.Split(rawPlatforms, ","), tz, days)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"calendar": calendar})
}

// handleStats serves GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := s.orchestrator.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleQuota serves GET /api/quota?channel_id=... and POST /api/quota
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		channelID := r.URL.Query().Get("channel_id")
		if channelID == "" {
			writeError(w, http.StatusBadRequest, "channel_id query parameter is required")
			return
		}

		records, err := s.tracker.ListByChannel(channelID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"quotas": records})

	case http.MethodPost:
		var body struct {
			ChannelID    string `json:"channel_id"`
			ProviderID   string `json:"provider_id"`
			MonthlyLimit *int   `json:"monthly_limit"`
			Active       *bool  `json:"active"`
		}
		if readJSON(w, r, &body) != nil {
			return
		}
		if body.ChannelID == "" || body.ProviderID == "" {
			writeError(w, http.StatusBadRequest, "channel_id and provider_id are required")
			return
		}

		limit := s.cfg.Quota.DefaultMonthlyLimit
		if body.MonthlyLimit != nil {
			limit = *body.MonthlyLimit
		}
		active := true
		if body.Active != nil {
			active = *body.Active
		}

		if err := s.tracker.Configure(body.ChannelID, body.ProviderID, limit, active); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"channel_id":    body.ChannelID,
			"provider_id":   body.ProviderID,
			"monthly_limit": limit,
			"active":        active,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
