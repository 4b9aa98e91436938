package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/freebusy/internal/application"
)

type availabilityService interface {
	PersonAvailability(ctx context.Context, params application.PersonAvailabilityParams) (application.PersonAvailabilityResult, error)
	GroupAvailability(ctx context.Context, params application.GroupAvailabilityParams) (application.GroupAvailabilityResult, error)
}

type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Self reports the caller's own free intervals within the requested range.
// Admins may inspect another member by passing owner_id.
func (h *AvailabilityHandler) Self(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	rangeStart, err := parseRequiredTime(query.Get("range_start"), "range_start")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	rangeEnd, err := parseRequiredTime(query.Get("range_end"), "range_end")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	minDuration, err := parseOptionalMinutes(query.Get("min_duration_minutes"), "min_duration_minutes")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Self", "principal_id", principal.UserID)

	result, err := h.service.PersonAvailability(r.Context(), application.PersonAvailabilityParams{
		Principal:   principal,
		OwnerID:     strings.TrimSpace(query.Get("owner_id")),
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		MinDuration: minDuration,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "person availability failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("free_slots", len(result.FreeSlots)).InfoContext(r.Context(), "person availability computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, personAvailabilityResponse{
		OwnerID:   result.OwnerID,
		FreeSlots: toFreeSlotDTOs(result.FreeSlots),
	})
}

// Group computes the overlapping free time of a participant set and returns
// ranked meeting suggestions.
func (h *AvailabilityHandler) Group(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req groupAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Group", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode group availability request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params, err := req.toParams(principal)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Group", "principal_id", principal.UserID, "participants", len(params.ParticipantIDs))

	result, err := h.service.GroupAvailability(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "group availability failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With(
		"common_slots", len(result.CommonSlots),
		"suggestions", len(result.Suggestions),
	).InfoContext(r.Context(), "group availability computed")

	h.responder.writeJSON(r.Context(), w, http.StatusOK, groupAvailabilityResponse{
		Participants: result.Participants,
		CommonSlots:  toCommonSlotDTOs(result.CommonSlots),
		Suggestions:  toSuggestionDTOs(result.Suggestions),
	})
}

func parseRequiredTime(raw, name string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, errors.New(name + " is required")
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return parsed, nil
}

func parseOptionalMinutes(raw, name string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(trimmed)
	if err != nil || minutes < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return time.Duration(minutes) * time.Minute, nil
}

type groupAvailabilityRequest struct {
	ParticipantIDs        []string `json:"participant_ids"`
	RangeStart            string   `json:"range_start"`
	RangeEnd              string   `json:"range_end"`
	MinDurationMinutes    int      `json:"min_duration_minutes"`
	MaxSuggestions        int      `json:"max_suggestions"`
	MaxMeetingLengthMins  int      `json:"max_meeting_length_minutes"`
}

func (r groupAvailabilityRequest) toParams(principal application.Principal) (application.GroupAvailabilityParams, error) {
	rangeStart, err := parseRequiredTime(r.RangeStart, "range_start")
	if err != nil {
		return application.GroupAvailabilityParams{}, err
	}
	rangeEnd, err := parseRequiredTime(r.RangeEnd, "range_end")
	if err != nil {
		return application.GroupAvailabilityParams{}, err
	}
	if r.MinDurationMinutes < 0 {
		return application.GroupAvailabilityParams{}, errors.New("min_duration_minutes must be a non-negative integer")
	}
	if r.MaxSuggestions < 0 {
		return application.GroupAvailabilityParams{}, errors.New("max_suggestions must be a non-negative integer")
	}
	if r.MaxMeetingLengthMins < 0 {
		return application.GroupAvailabilityParams{}, errors.New("max_meeting_length_minutes must be a non-negative integer")
	}

	return application.GroupAvailabilityParams{
		Principal:        principal,
		ParticipantIDs:   r.ParticipantIDs,
		RangeStart:       rangeStart,
		RangeEnd:         rangeEnd,
		MinDuration:      time.Duration(r.MinDurationMinutes) * time.Minute,
		MaxSuggestions:   r.MaxSuggestions,
		MaxMeetingLength: time.Duration(r.MaxMeetingLengthMins) * time.Minute,
	}, nil
}

type personAvailabilityResponse struct {
	OwnerID   string        `json:"owner_id"`
	FreeSlots []freeSlotDTO `json:"free_slots"`
}

type groupAvailabilityResponse struct {
	Participants []string        `json:"participants"`
	CommonSlots  []commonSlotDTO `json:"common_slots"`
	Suggestions  []suggestionDTO `json:"suggestions"`
}

type freeSlotDTO struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type commonSlotDTO struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type suggestionDTO struct {
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Confidence   float64  `json:"confidence"`
	Participants []string `json:"participants"`
}

func toFreeSlotDTOs(slots []application.FreeSlot) []freeSlotDTO {
	if len(slots) == 0 {
		return nil
	}
	out := make([]freeSlotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, freeSlotDTO{
			Start:           slot.Start.UTC().Format(time.RFC3339Nano),
			End:             slot.End.UTC().Format(time.RFC3339Nano),
			DurationMinutes: slot.DurationMinutes,
		})
	}
	return out
}

func toCommonSlotDTOs(slots []application.CommonSlot) []commonSlotDTO {
	if len(slots) == 0 {
		return nil
	}
	out := make([]commonSlotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, commonSlotDTO{
			Start:           slot.Start.UTC().Format(time.RFC3339Nano),
			End:             slot.End.UTC().Format(time.RFC3339Nano),
			DurationMinutes: slot.DurationMinutes,
		})
	}
	return out
}

func toSuggestionDTOs(suggestions []application.MeetingSuggestion) []suggestionDTO {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, suggestionDTO{
			Start:        suggestion.Start.UTC().Format(time.RFC3339Nano),
			End:          suggestion.End.UTC().Format(time.RFC3339Nano),
			Confidence:   suggestion.Confidence,
			Participants: suggestion.Participants,
		})
	}
	return out
}
