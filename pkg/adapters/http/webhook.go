package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/flow"
)

// maxBodyBytes caps the webhook payload; text itself is bounded by the engine.
const maxBodyBytes = 64 << 10

// WebhookRequest is an inbound channel message.
// from_whatsapp and profile_name are accepted as aliases of channel_id and display_name.
type WebhookRequest struct {
	ChannelID    string    `json:"channel_id"`
	FromWhatsApp string    `json:"from_whatsapp"`
	DisplayName  string    `json:"display_name"`
	ProfileName  string    `json:"profile_name"`
	Text         string    `json:"text"`
	Timestamp    Timestamp `json:"timestamp"`
}

func (req WebhookRequest) inbound() engine.Inbound {
	in := engine.Inbound{
		ChannelID:   req.ChannelID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		Timestamp:   time.Time(req.Timestamp),
	}
	if in.ChannelID == "" {
		in.ChannelID = req.FromWhatsApp
	}
	if in.DisplayName == "" {
		in.DisplayName = req.ProfileName
	}
	return in
}

// WebhookResponse summarizes the committed turn.
type WebhookResponse struct {
	Status        string                `json:"status"`
	LeadID        string                `json:"lead_id"`
	CurrentStepID string                `json:"current_step_id"`
	Message       string                `json:"message"`
	Reason        flow.InvalidReason    `json:"reason,omitempty"`
	Completed     bool                  `json:"completed"`
	Created       bool                  `json:"created"`
	Outgoing      []domain.HistoryEntry `json:"outgoing"`
}

// Timestamp decodes unix seconds or an RFC 3339 string.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = Timestamp(time.Unix(n, 0).UTC())
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}

// Webhook handles POST /webhook. An invalid choice is a normal turn:
// it answers 200 with status "error" and the corrective text.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("Webhook: invalid request body", "error", err)
		return
	}

	resp, err := s.cfg.Engine.Handle(r.Context(), req.inbound())
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Error("Webhook: turn failed", "channel_id", req.inbound().ChannelID, "code", code, "error", err)
		} else {
			s.logger.Warn("Webhook: turn rejected", "channel_id", req.inbound().ChannelID, "code", code, "error", err)
		}
		writeError(w, code, err.Error())
		return
	}

	out := WebhookResponse{
		Status:        "ok",
		LeadID:        resp.LeadID,
		CurrentStepID: resp.CurrentStepID,
		Message:       resp.LastOutgoingText,
		Reason:        resp.Reason,
		Completed:     resp.Status == engine.StatusCompleted,
		Created:       resp.Created,
		Outgoing:      resp.Outgoing,
	}
	if resp.Status == engine.StatusInvalid {
		out.Status = "error"
	}
	if out.Outgoing == nil {
		out.Outgoing = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}

// statusFor maps turn errors to HTTP status codes. Flow cycles and
// anything unexpected are server errors.
func statusFor(err error) int {
	var (
		invalidState *domain.InvalidStateError
		persistence  *domain.PersistenceError
	)
	switch {
	case errors.Is(err, engine.ErrMissingChannel),
		errors.Is(err, engine.ErrInputTooLarge),
		errors.Is(err, engine.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.As(err, &invalidState):
		return http.StatusConflict
	case errors.As(err, &persistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
