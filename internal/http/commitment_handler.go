package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/freebusy/internal/application"
)

type commitmentService interface {
	CreateCommitment(ctx context.Context, params application.CreateCommitmentParams) (application.Commitment, error)
	GetCommitment(ctx context.Context, principal application.Principal, id string) (application.Commitment, error)
	UpdateCommitment(ctx context.Context, params application.UpdateCommitmentParams) (application.Commitment, error)
	DeleteCommitment(ctx context.Context, principal application.Principal, id string) error
	ListCommitments(ctx context.Context, params application.ListCommitmentsParams) ([]application.Commitment, error)
}

type CommitmentHandler struct {
	service   commitmentService
	responder responder
	logger    *slog.Logger
}

func NewCommitmentHandler(service commitmentService, logger *slog.Logger) *CommitmentHandler {
	base := defaultLogger(logger)
	return &CommitmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommitmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommitmentHandler", operation, attrs...)
}

func (h *CommitmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req commitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode commitment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	commitment, err := h.service.CreateCommitment(r.Context(), application.CreateCommitmentParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "commitment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("commitment_id", commitment.ID).InfoContext(r.Context(), "commitment created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, commitmentResponse{Commitment: toCommitmentDTO(commitment)})
}

func (h *CommitmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	commitmentID, ok := CommitmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(commitmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCommitmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	commitment, err := h.service.GetCommitment(r.Context(), principal, commitmentID)
	if err != nil {
		h.log(r.Context(), "Get", "commitment_id", commitmentID).ErrorContext(r.Context(), "commitment fetch failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, commitmentResponse{Commitment: toCommitmentDTO(commitment)})
}

func (h *CommitmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	commitmentID, ok := CommitmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(commitmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCommitmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req commitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "commitment_id", commitmentID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode commitment update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "commitment_id", commitmentID)

	commitment, err := h.service.UpdateCommitment(r.Context(), application.UpdateCommitmentParams{
		Principal:    principal,
		CommitmentID: commitmentID,
		Input:        input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "commitment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "commitment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, commitmentResponse{Commitment: toCommitmentDTO(commitment)})
}

func (h *CommitmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	commitmentID, ok := CommitmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(commitmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidCommitmentID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "commitment_id", commitmentID)
	if err := h.service.DeleteCommitment(r.Context(), principal, commitmentID); err != nil {
		logger.ErrorContext(r.Context(), "commitment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "commitment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CommitmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	params, err := buildListCommitmentsParams(r.URL.Query(), principal)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	commitments, err := h.service.ListCommitments(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "commitment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(commitments)).InfoContext(r.Context(), "commitments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCommitmentsResponse{Commitments: toCommitmentDTOs(commitments)})
}

func buildListCommitmentsParams(query url.Values, principal application.Principal) (application.ListCommitmentsParams, error) {
	params := application.ListCommitmentsParams{
		Principal: principal,
		OwnerID:   strings.TrimSpace(query.Get("owner_id")),
	}

	startsAfter, err := parseOptionalTime(query.Get("starts_after"), "starts_after")
	if err != nil {
		return application.ListCommitmentsParams{}, err
	}
	params.StartsAfter = startsAfter

	endsBefore, err := parseOptionalTime(query.Get("ends_before"), "ends_before")
	if err != nil {
		return application.ListCommitmentsParams{}, err
	}
	params.EndsBefore = endsBefore

	return params, nil
}

func parseOptionalTime(raw, name string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return &parsed, nil
}

type commitmentRequest struct {
	OwnerID    string                    `json:"owner_id"`
	Title      string                    `json:"title"`
	Start      string                    `json:"start"`
	End        string                    `json:"end"`
	Recurring  bool                      `json:"recurring"`
	Recurrence *commitmentRecurrenceBody `json:"recurrence,omitempty"`
}

type commitmentRecurrenceBody struct {
	Frequency string `json:"frequency"`
	Interval  int    `json:"interval"`
	Until     string `json:"until,omitempty"`
}

func (r commitmentRequest) toInput() (application.CommitmentInput, error) {
	input := application.CommitmentInput{
		OwnerID:   strings.TrimSpace(r.OwnerID),
		Title:     r.Title,
		Recurring: r.Recurring,
	}

	if trimmed := strings.TrimSpace(r.Start); trimmed != "" {
		start, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.CommitmentInput{}, errors.New("start must be an RFC 3339 timestamp")
		}
		input.Start = start
	}
	if trimmed := strings.TrimSpace(r.End); trimmed != "" {
		end, err := time.Parse(time.RFC3339, trimmed)
		if err != nil {
			return application.CommitmentInput{}, errors.New("end must be an RFC 3339 timestamp")
		}
		input.End = end
	}

	if r.Recurrence != nil {
		recurrence := &application.RecurrenceInput{
			Frequency: strings.TrimSpace(r.Recurrence.Frequency),
			Interval:  r.Recurrence.Interval,
		}
		if trimmed := strings.TrimSpace(r.Recurrence.Until); trimmed != "" {
			until, err := time.Parse(time.RFC3339, trimmed)
			if err != nil {
				return application.CommitmentInput{}, errors.New("recurrence.until must be an RFC 3339 timestamp")
			}
			recurrence.Until = &until
		}
		input.Recurrence = recurrence
	}

	return input, nil
}

type commitmentResponse struct {
	Commitment commitmentDTO `json:"commitment"`
}

type listCommitmentsResponse struct {
	Commitments []commitmentDTO `json:"commitments"`
}

type commitmentDTO struct {
	ID         string                   `json:"id"`
	OwnerID    string                   `json:"owner_id"`
	Title      string                   `json:"title"`
	Start      string                   `json:"start"`
	End        string                   `json:"end"`
	Weekday    string                   `json:"weekday"`
	Recurring  bool                     `json:"recurring"`
	Recurrence *commitmentRecurrenceDTO `json:"recurrence,omitempty"`
	CreatedAt  string                   `json:"created_at"`
	UpdatedAt  string                   `json:"updated_at"`
}

type commitmentRecurrenceDTO struct {
	Frequency string `json:"frequency"`
	Interval  int    `json:"interval"`
	Until     string `json:"until,omitempty"`
}

func toCommitmentDTO(commitment application.Commitment) commitmentDTO {
	dto := commitmentDTO{
		ID:        commitment.ID,
		OwnerID:   commitment.OwnerID,
		Title:     commitment.Title,
		Start:     commitment.Start.UTC().Format(time.RFC3339Nano),
		End:       commitment.End.UTC().Format(time.RFC3339Nano),
		Weekday:   strings.ToLower(commitment.Weekday.String()),
		Recurring: commitment.Recurring,
		CreatedAt: commitment.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: commitment.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if commitment.Recurrence != nil {
		dto.Recurrence = &commitmentRecurrenceDTO{
			Frequency: commitment.Recurrence.Frequency,
			Interval:  commitment.Recurrence.Interval,
		}
		if commitment.Recurrence.Until != nil {
			dto.Recurrence.Until = commitment.Recurrence.Until.UTC().Format(time.RFC3339Nano)
		}
	}
	return dto
}

func toCommitmentDTOs(commitments []application.Commitment) []commitmentDTO {
	if len(commitments) == 0 {
		return nil
	}
	out := make([]commitmentDTO, 0, len(commitments))
	for _, commitment := range commitments {
		out = append(out, toCommitmentDTO(commitment))
	}
	return out
}
