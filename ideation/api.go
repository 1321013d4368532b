package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/pipeline"
	"github.com/foundry-app/foundry-go/internal/platform/auth"
	"github.com/foundry-app/foundry-go/internal/repo"
	"github.com/foundry-app/foundry-go/internal/service/ideation"
)

type ideationAPI struct {
	logger  *slog.Logger
	service *ideation.Service
}

func newIdeationAPI(logger *slog.Logger, service *ideation.Service) *ideationAPI {
	return &ideationAPI{logger: logger, service: service}
}

func (api *ideationAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /ideation/sessions", api.handleStartSession)
	mux.HandleFunc("GET /ideation/sessions/{session_id}", api.handleGetSession)
	mux.HandleFunc("DELETE /ideation/sessions/{session_id}", api.handleDeleteSession)
	mux.HandleFunc("PUT /ideation/sessions/{session_id}/seed", api.handleUpdateSeed)

	mux.HandleFunc("POST /ideation/sessions/{session_id}/variations", api.handleGenerateVariations)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/variations/{variation_id}/regenerate", api.handleRegenerateVariation)
	mux.HandleFunc("PUT /ideation/sessions/{session_id}/variations/{variation_id}/liked-aspects", api.handleLikedAspects)

	mux.HandleFunc("POST /ideation/sessions/{session_id}/combined", api.handleCombine)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/combined/regenerate", api.handleRegenerateCombined)

	mux.HandleFunc("POST /ideation/sessions/{session_id}/select", api.handleToggleSelect)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/edit/begin", api.handleEditBegin)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/edit/update", api.handleEditUpdate)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/edit/commit", api.handleEditCommit)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/edit/cancel", api.handleEditCancel)

	mux.HandleFunc("POST /ideation/sessions/{session_id}/back", api.handleBack)
	mux.HandleFunc("POST /ideation/sessions/{session_id}/commit", api.handleCommit)

	mux.HandleFunc("GET /ideas", api.handleListIdeas)
	mux.HandleFunc("GET /ideas/{idea_id}", api.handleGetIdea)
}

type seedRequest struct {
	Title       string `json:"title"`
	Inspiration string `json:"inspiration,omitempty"`
	ConceptType string `json:"concept_type,omitempty"`
}

type seedView struct {
	Title       string `json:"title"`
	Inspiration string `json:"inspiration,omitempty"`
	ConceptType string `json:"concept_type,omitempty"`
}

type editBufferView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type variationView struct {
	VariationID    string `json:"variation_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Differentiator string `json:"differentiator"`
	TargetMarket   string `json:"target_market"`
	RevenueModel   string `json:"revenue_model"`
	Selected       bool   `json:"selected"`
	Editing        bool   `json:"editing"`
	LikedAspects   string `json:"liked_aspects,omitempty"`
}

type conceptView struct {
	ConceptID        string   `json:"concept_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	SourceElements   []string `json:"source_elements"`
	TargetMarket     string   `json:"target_market"`
	RevenueModel     string   `json:"revenue_model"`
	ValueProposition string   `json:"value_proposition"`
	Selected         bool     `json:"selected"`
	Editing          bool     `json:"editing"`
}

type sessionView struct {
	SessionID   string                    `json:"session_id"`
	Stage       string                    `json:"stage"`
	Seed        seedView                  `json:"seed"`
	Variations  []variationView           `json:"variations"`
	Combined    []conceptView             `json:"combined_concepts"`
	EditBuffers map[string]editBufferView `json:"edit_buffers,omitempty"`
	Generating  bool                      `json:"generating"`
}

type ideaView struct {
	IdeaID          string            `json:"idea_id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	TargetMarket    string            `json:"target_market"`
	SolutionConcept string            `json:"solution_concept"`
	Status          string            `json:"status"`
	AIFeedback      domain.AIFeedback `json:"ai_feedback"`
	CreatedAt       time.Time         `json:"created_at"`
	CreatedBy       string            `json:"created_by"`
}

func sessionViewFrom(sessionID string, state pipeline.State) sessionView {
	view := sessionView{
		SessionID: sessionID,
		Stage:     string(state.Stage),
		Seed: seedView{
			Title:       state.Seed.Title,
			Inspiration: state.Seed.Inspiration,
			ConceptType: state.Seed.ConceptType,
		},
		Variations: make([]variationView, 0, len(state.Variations)),
		Combined:   make([]conceptView, 0, len(state.Combined)),
		Generating: state.Generating,
	}
	for _, v := range state.Variations {
		view.Variations = append(view.Variations, variationView{
			VariationID:    v.ID,
			Title:          v.Title,
			Description:    v.Description,
			Differentiator: v.Differentiator,
			TargetMarket:   v.TargetMarket,
			RevenueModel:   v.RevenueModel,
			Selected:       v.Selected,
			Editing:        v.Editing,
			LikedAspects:   v.LikedAspects,
		})
	}
	for _, c := range state.Combined {
		view.Combined = append(view.Combined, conceptView{
			ConceptID:        c.ID,
			Title:            c.Title,
			Description:      c.Description,
			SourceElements:   c.SourceElements,
			TargetMarket:     c.TargetMarket,
			RevenueModel:     c.RevenueModel,
			ValueProposition: c.ValueProposition,
			Selected:         c.Selected,
			Editing:          c.Editing,
		})
	}
	if len(state.EditBuffers) > 0 {
		view.EditBuffers = make(map[string]editBufferView, len(state.EditBuffers))
		for id, buf := range state.EditBuffers {
			view.EditBuffers[id] = editBufferView{Title: buf.Title, Description: buf.Description}
		}
	}
	return view
}

func ideaViewFrom(record domain.FinalizedIdeaRecord) ideaView {
	return ideaView{
		IdeaID:          record.ID,
		Title:           record.Title,
		Description:     record.Description,
		TargetMarket:    record.TargetMarket,
		SolutionConcept: record.SolutionConcept,
		Status:          record.Status,
		AIFeedback:      record.AIFeedback,
		CreatedAt:       record.CreatedAt,
		CreatedBy:       record.CreatedBy,
	}
}

func (api *ideationAPI) handleStartSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}

	sessionID, state, err := api.service.StartSession(identity.Subject, seedFrom(req))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/ideation/sessions/"+sessionID)
	api.writeJSON(w, http.StatusCreated, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleGetSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.State(identity.Subject, sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	if err := api.service.DeleteSession(identity.Subject, r.PathValue("session_id")); err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *ideationAPI) handleUpdateSeed(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}

	sessionID := r.PathValue("session_id")
	state, err := api.service.UpdateSeed(identity.Subject, sessionID, seedFrom(req))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleGenerateVariations(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.GenerateVariations(r.Context(), api.auditContext(r, identity), sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleRegenerateVariation(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.RegenerateVariation(r.Context(), identity.Subject, sessionID, r.PathValue("variation_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

type likedAspectsRequest struct {
	LikedAspects string `json:"liked_aspects"`
}

func (api *ideationAPI) handleLikedAspects(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	var req likedAspectsRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}

	sessionID := r.PathValue("session_id")
	state, err := api.service.UpdateLikedAspects(identity.Subject, sessionID, r.PathValue("variation_id"), req.LikedAspects)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleCombine(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.Combine(r.Context(), api.auditContext(r, identity), sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleRegenerateCombined(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.RegenerateCombined(r.Context(), api.auditContext(r, identity), sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

type itemRequest struct {
	Collection string `json:"collection"`
	ItemID     string `json:"item_id"`
}

func (api *ideationAPI) handleToggleSelect(w http.ResponseWriter, r *http.Request) {
	api.handleItemOp(w, r, func(owner, sessionID string, req itemRequest) (pipeline.State, error) {
		return api.service.ToggleSelect(owner, sessionID, pipeline.Collection(req.Collection), req.ItemID)
	})
}

func (api *ideationAPI) handleEditBegin(w http.ResponseWriter, r *http.Request) {
	api.handleItemOp(w, r, func(owner, sessionID string, req itemRequest) (pipeline.State, error) {
		return api.service.BeginEdit(owner, sessionID, pipeline.Collection(req.Collection), req.ItemID)
	})
}

func (api *ideationAPI) handleEditCommit(w http.ResponseWriter, r *http.Request) {
	api.handleItemOp(w, r, func(owner, sessionID string, req itemRequest) (pipeline.State, error) {
		return api.service.CommitEdit(owner, sessionID, pipeline.Collection(req.Collection), req.ItemID)
	})
}

func (api *ideationAPI) handleEditCancel(w http.ResponseWriter, r *http.Request) {
	api.handleItemOp(w, r, func(owner, sessionID string, req itemRequest) (pipeline.State, error) {
		return api.service.CancelEdit(owner, sessionID, pipeline.Collection(req.Collection), req.ItemID)
	})
}

func (api *ideationAPI) handleItemOp(w http.ResponseWriter, r *http.Request, op func(owner, sessionID string, req itemRequest) (pipeline.State, error)) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}

	sessionID := r.PathValue("session_id")
	state, err := op(identity.Subject, sessionID, req)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

type editUpdateRequest struct {
	Collection string `json:"collection"`
	ItemID     string `json:"item_id"`
	Field      string `json:"field"`
	Value      string `json:"value"`
}

func (api *ideationAPI) handleEditUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	var req editUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "")
		return
	}

	sessionID := r.PathValue("session_id")
	state, err := api.service.UpdateEditBuffer(identity.Subject, sessionID, pipeline.Collection(req.Collection), req.ItemID, req.Field, req.Value)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleBack(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	state, err := api.service.Back(identity.Subject, sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, sessionViewFrom(sessionID, state))
}

func (api *ideationAPI) handleCommit(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	sessionID := r.PathValue("session_id")

	record, err := api.service.Commit(r.Context(), api.auditContext(r, identity), sessionID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/ideas/"+record.ID)
	api.writeJSON(w, http.StatusCreated, ideaViewFrom(record))
}

func (api *ideationAPI) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	limit := clampInt(parseIntQuery(r, "limit", 100), 1, 500)

	records, err := api.service.ListIdeas(r.Context(), identity.Subject, status, limit)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	out := make([]ideaView, 0, len(records))
	for _, record := range records {
		out = append(out, ideaViewFrom(record))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"ideas": out})
}

func (api *ideationAPI) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.identity(w, r)
	if !ok {
		return
	}
	record, err := api.service.GetIdea(r.Context(), identity.Subject, r.PathValue("idea_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, ideaViewFrom(record))
}

func (api *ideationAPI) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		return auth.Identity{}, false
	}
	return identity, true
}

func (api *ideationAPI) auditContext(r *http.Request, identity auth.Identity) ideation.AuditContext {
	return ideation.AuditContext{
		Actor:     identity.Subject,
		RequestID: r.Header.Get("X-Request-Id"),
	}
}

func seedFrom(req seedRequest) domain.SeedIdea {
	return domain.SeedIdea{
		Title:       strings.TrimSpace(req.Title),
		Inspiration: strings.TrimSpace(req.Inspiration),
		ConceptType: strings.TrimSpace(req.ConceptType),
	}
}

// writeServiceError maps service and domain errors onto the wire. The
// refinement preconditions surface as 422 so clients can show the message
// verbatim next to the offending control.
func (api *ideationAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var gErr *domain.GenerationError
	var pErr *domain.PersistError
	switch {
	case errors.Is(err, ideation.ErrSessionNotFound), errors.Is(err, repo.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found", "")
	case errors.As(err, &vErr):
		api.writeError(w, r, http.StatusUnprocessableEntity, "validation_failed", vErr.Msg)
	case errors.As(err, &gErr):
		// Only the action label; the wrapped provider error stays in the logs.
		api.writeError(w, r, http.StatusBadGateway, "generation_failed", gErr.Msg)
	case errors.As(err, &pErr):
		api.writeError(w, r, http.StatusInternalServerError, "persist_failed", "")
	default:
		api.logger.Error("unhandled service error", "error", err, "path", r.URL.Path)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *ideationAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *ideationAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	}
	if message != "" {
		body["message"] = message
	}
	api.writeJSON(w, status, body)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
