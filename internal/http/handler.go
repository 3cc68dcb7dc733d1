package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/davidbz/prism/internal/config"
	"github.com/davidbz/prism/internal/domain"
	"github.com/davidbz/prism/internal/observability"
)

// ProviderHeader overrides the provider named in the request body.
const ProviderHeader = "X-Provider"

// ChatService runs canonical chat requests.
type ChatService interface {
	Chat(ctx context.Context, req *domain.ChatRequest) (*domain.Response, error)
}

// Handler handles HTTP requests.
type Handler struct {
	gateway ChatService
	display config.DisplayConfig
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(gateway ChatService, display *config.DisplayConfig) *Handler {
	h := &Handler{gateway: gateway}
	if display != nil {
		h.display = *display
	}
	return h
}

// chatRequest is the body of POST /v1/chat.
type chatRequest struct {
	Model             string           `json:"model"`
	Provider          string           `json:"provider,omitempty"`
	Messages          []domain.Message `json:"messages"`
	Stream            bool             `json:"stream,omitempty"`
	RawVerbose        bool             `json:"raw_verbose,omitempty"`
	SystemInstruction string           `json:"system_instruction,omitempty"`
	ShowThinking      *bool            `json:"show_thinking,omitempty"`
	Temperature       *float64         `json:"temperature,omitempty"`
	MaxTokens         *int             `json:"max_tokens,omitempty"`
	ThinkingBudget    *int             `json:"thinking_budget,omitempty"`
	Params            map[string]any   `json:"params,omitempty"`
}

func (h *Handler) toDomain(body *chatRequest, r *http.Request) *domain.ChatRequest {
	provider := body.Provider
	if header := r.Header.Get(ProviderHeader); header != "" {
		provider = header
	}

	showThinking := h.display.ShowThinking
	if body.ShowThinking != nil {
		showThinking = *body.ShowThinking
	}

	return &domain.ChatRequest{
		Model:    body.Model,
		Provider: provider,
		Messages: body.Messages,
		Options: domain.Options{
			Stream:            body.Stream,
			RawVerbose:        body.RawVerbose,
			SystemInstruction: body.SystemInstruction,
			RealtimeDisplay:   h.display.Enabled,
			ShowThinking:      showThinking,
			Temperature:       body.Temperature,
			MaxTokens:         body.MaxTokens,
			ThinkingBudget:    body.ThinkingBudget,
			Params:            body.Params,
		},
	}
}

// fragment is the data of a thinking or answer SSE event.
type fragment struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// errorBody is the JSON error payload. Partial is set for interrupted streams.
type errorBody struct {
	Error   string           `json:"error"`
	Partial *domain.Response `json:"partial,omitempty"`
}

func newErrorBody(err error) errorBody {
	body := errorBody{Error: err.Error()}
	var interrupted *domain.StreamInterruptedError
	if errors.As(err, &interrupted) {
		body.Partial = interrupted.Partial
	}
	return body
}

// HandleChat processes chat requests.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Early validation.
	if r.Method != http.MethodPost {
		writeJSON(ctx, w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	if body.Model == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: "model is required"})
		return
	}

	if len(body.Messages) == 0 {
		writeJSON(ctx, w, http.StatusBadRequest, errorBody{Error: "messages are required"})
		return
	}

	req := h.toDomain(&body, r)

	// Inject model into context for downstream logging.
	ctx = observability.WithModel(ctx, req.Model)

	logger := observability.FromContext(ctx)
	logger.Info("chat request received",
		observability.String("requested_provider", req.Provider),
		observability.Bool("stream", req.Options.Stream),
		observability.Int("messages", len(req.Messages)),
	)

	if req.Options.Stream {
		h.handleStream(ctx, w, req)
		return
	}

	resp, err := h.gateway.Chat(ctx, req)
	if err != nil {
		logger.Error("chat failed", observability.Error(err))
		writeJSON(ctx, w, statusFor(err), newErrorBody(err))
		return
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *Handler) handleStream(ctx context.Context, w http.ResponseWriter, req *domain.ChatRequest) {
	logger := observability.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		writeJSON(ctx, w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := &sseWriter{w: w, flusher: flusher}

	req.Options.Callback = func(kind domain.ContentKind, text string, index int) {
		if err := events.send(string(kind), fragment{Text: text, Index: index}); err != nil {
			logger.Debug("failed to write stream fragment", observability.Error(err))
		}
	}

	resp, err := h.gateway.Chat(ctx, req)
	if err != nil {
		logger.Error("stream failed", observability.Error(err))
		if sendErr := events.send("error", newErrorBody(err)); sendErr != nil {
			logger.Debug("failed to write stream error", observability.Error(sendErr))
		}
		return
	}

	if sendErr := events.send("done", resp); sendErr != nil {
		logger.Debug("failed to write stream result", observability.Error(sendErr))
		return
	}

	logger.Info("stream completed", observability.Int("events", events.sent))
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "healthy"})
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	sent    int
}

func (s *sseWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}
	s.flusher.Flush()
	s.sent++
	return nil
}

func statusFor(err error) int {
	var formatErr *domain.FormatError
	switch {
	case errors.Is(err, domain.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}
