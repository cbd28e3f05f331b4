package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	visits  ports.VisitService
	logger  logger.Logger
}

func NewHTTPHandler(service ports.LinkService, visits ports.VisitService, log logger.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, visits: visits, logger: log}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	OriginalURL string   `json:"original_url"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	CustomCode  string   `json:"custom_code,omitempty"`
}

// UpdateLinkRequest payload
type UpdateLinkRequest struct {
	OriginalURL string   `json:"original_url,omitempty"`
	Title       string   `json:"title,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.service.Shorten(r.Context(), req.OriginalURL, req.Title, req.Tags, req.CustomCode)
	if err != nil {
		h.fail(w, "Failed to create link", err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// Redirect to original URL. Unknown codes are tracked as orphan visits.
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")
	visitor := visitorFromRequest(r)

	link, err := h.service.GetLinkByShortCode(r.Context(), code)
	if errors.Is(err, services.ErrLinkNotFound) {
		if err := h.visits.TrackOrphanVisit(r.Context(), domain.VisitTypeInvalidShortURL, visitor); err != nil {
			h.logger.Warn("Failed to track invalid short URL visit", logger.String("short_code", code), logger.Err(err))
		}
		http.Error(w, "Link not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, "Failed to resolve short code", err)
		return
	}

	if r.URL.Query().Get("no_stat") == "" {
		go func() {
			// The request context is cancelled once the redirect is written.
			if err := h.service.RecordVisit(context.Background(), code, visitor); err != nil {
				h.logger.Warn("Failed to record visit", logger.String("short_code", code), logger.Err(err))
			}
		}()
	}

	http.Redirect(w, r, link.OriginalURL, http.StatusFound)
}

// NotFound handles every request no other route matched.
func (h *HTTPHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	visitType := domain.VisitTypeRegular404
	if r.URL.Path == "/" {
		visitType = domain.VisitTypeBaseURL
	}

	if err := h.visits.TrackOrphanVisit(r.Context(), visitType, visitorFromRequest(r)); err != nil {
		h.logger.Warn("Failed to track orphan visit", logger.String("type", string(visitType)), logger.Err(err))
	}
	http.NotFound(w, r)
}

// Get Stats for a Link
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetLinkStats(r.Context(), id)
	if err != nil {
		h.fail(w, "Failed to load link stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Get Dashboard
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	links, total, err := h.service.GetDashboard(r.Context(), limit, q.Get("search"), q.Get("tag"), q.Get("domain"))
	if err != nil {
		h.fail(w, "Failed to load dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"top_links":           links,
		"total_system_clicks": total,
	})
}

// List Links
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	links, count, err := h.service.ListLinks(r.Context(), page, limit, q.Get("search"), q.Get("tag"))
	if err != nil {
		h.fail(w, "Failed to list links", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  links,
		"total": count,
		"page":  page,
		"limit": limit,
	})
}

// Update Link
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	link, err := h.service.UpdateLink(r.Context(), id, req.OriginalURL, req.Title, req.Tags)
	if err != nil {
		h.fail(w, "Failed to update link", err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// Delete Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteLink(r.Context(), id); err != nil {
		h.fail(w, "Failed to delete link", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// OrphanVisits lists visits that matched no short URL.
func (h *HTTPHandler) OrphanVisits(w http.ResponseWriter, r *http.Request) {
	params, err := parseVisitsParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.visits.OrphanVisits(r.Context(), params, APIKeyFromContext(r.Context()))
	if err != nil {
		h.fail(w, "Failed to list orphan visits", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"visits": page})
}

func parseVisitsParams(r *http.Request) (domain.VisitsParams, error) {
	q := r.URL.Query()
	params := domain.VisitsParams{
		ExcludeBots: q.Get("excludeBots") == "true",
	}
	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.ItemsPerPage, _ = strconv.Atoi(q.Get("itemsPerPage"))

	start, err := parseDate(q.Get("startDate"))
	if err != nil {
		return params, errors.New("invalid startDate")
	}
	end, err := parseDate(q.Get("endDate"))
	if err != nil {
		return params, errors.New("invalid endDate")
	}
	if start != nil || end != nil {
		params.DateRange = &domain.DateRange{Start: start, End: end}
	}
	return params, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unsupported date format")
}

func visitorFromRequest(r *http.Request) domain.Visitor {
	remoteAddr := services.ClientIP(r.RemoteAddr)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		remoteAddr = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return domain.Visitor{
		Referer:    r.Referer(),
		UserAgent:  r.UserAgent(),
		RemoteAddr: remoteAddr,
		VisitedURL: scheme + "://" + r.Host + r.URL.RequestURI(),
		Location:   edgeLocation(r),
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) fail(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, services.ErrLinkNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, services.ErrOriginalURLRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, services.ErrShortCodeTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.logger.Error(msg, logger.Err(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
