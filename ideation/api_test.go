package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/foundry-app/foundry-go/internal/domain"
	"github.com/foundry-app/foundry-go/internal/genai"
	"github.com/foundry-app/foundry-go/internal/platform/auth"
	"github.com/foundry-app/foundry-go/internal/repo"
	"github.com/foundry-app/foundry-go/internal/service/ideation"
)

type stubGenClient struct{}

func (stubGenClient) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	batch := make([]domain.Variation, 0, 3)
	for i := 0; i < 3; i++ {
		batch = append(batch, domain.Variation{
			ID:             uuid.NewString(),
			Title:          fmt.Sprintf("%s #%d", seed.Title, i+1),
			Description:    "generated take",
			Differentiator: fmt.Sprintf("angle-%d", i+1),
			TargetMarket:   "founders",
			RevenueModel:   "subscription",
		})
	}
	return batch, nil
}

func (stubGenClient) RegenerateVariation(ctx context.Context, seed domain.SeedIdea, prior domain.Variation) (domain.Variation, error) {
	return domain.Variation{ID: uuid.NewString(), Title: prior.Title + " redux", Description: "fresh take"}, nil
}

func (stubGenClient) GenerateCombinedConcepts(ctx context.Context, baseTitle string, selected []domain.Variation) ([]domain.CombinedConcept, error) {
	return []domain.CombinedConcept{
		{ID: uuid.NewString(), Title: baseTitle + " synthesis", Description: "combined", ValueProposition: "both angles"},
		{ID: uuid.NewString(), Title: baseTitle + " alt", Description: "combined alt", ValueProposition: "another mix"},
	}, nil
}

type memIdeaRepo struct {
	ideas []domain.FinalizedIdeaRecord
}

func (r *memIdeaRepo) CreateIdea(ctx context.Context, idea domain.FinalizedIdeaRecord) error {
	r.ideas = append(r.ideas, idea)
	return nil
}

func (r *memIdeaRepo) GetIdea(ctx context.Context, createdBy, id string) (domain.FinalizedIdeaRecord, error) {
	for _, idea := range r.ideas {
		if idea.ID == id && idea.CreatedBy == createdBy {
			return idea, nil
		}
	}
	return domain.FinalizedIdeaRecord{}, repo.ErrNotFound
}

func (r *memIdeaRepo) ListIdeas(ctx context.Context, filter repo.IdeaFilter) ([]domain.FinalizedIdeaRecord, error) {
	out := make([]domain.FinalizedIdeaRecord, 0)
	for _, idea := range r.ideas {
		if filter.CreatedBy != "" && idea.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, idea)
	}
	return out, nil
}

// downGenClient simulates an unreachable generation backend.
type downGenClient struct {
	stubGenClient
}

func (downGenClient) GenerateVariations(ctx context.Context, seed domain.SeedIdea) ([]domain.Variation, error) {
	return nil, errors.New("upstream returned 500")
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return newTestHandlerWithClient(t, stubGenClient{})
}

func newTestHandlerWithClient(t *testing.T, client genai.Client) http.Handler {
	t.Helper()
	svc, err := ideation.NewService(client, &memIdeaRepo{}, nil, nil, slog.Default(), ideation.Config{
		GenerationTimeout: time.Second,
		SessionIdleTTL:    time.Hour,
		SweepInterval:     time.Minute,
	})
	if err != nil {
		t.Fatalf("NewService() err=%v", err)
	}

	mux := http.NewServeMux()
	newIdeationAPI(slog.Default(), svc).register(mux)

	authenticator := auth.NewDevAuthenticator(auth.Config{
		Mode:       auth.ModeDev,
		DevSubject: "founder-1",
		DevEmail:   "founder-1@example.local",
	})
	return auth.Middleware{Authenticator: authenticator}.Wrap(mux)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid response JSON: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, out
}

func variationIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["variations"].([]any)
	if !ok {
		t.Fatalf("no variations in response: %v", body)
	}
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		m := entry.(map[string]any)
		ids = append(ids, m["variation_id"].(string))
	}
	return ids
}

func TestIdeationFlowOverHTTP(t *testing.T) {
	handler := newTestHandler(t)

	rec, body := doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{"title":"Tutus for ponies"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session status=%d body=%s", rec.Code, rec.Body.String())
	}
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("no session_id in response: %v", body)
	}
	if rec.Header().Get("Location") != "/ideation/sessions/"+sessionID {
		t.Fatalf("location=%q", rec.Header().Get("Location"))
	}
	if body["stage"] != "initial" {
		t.Fatalf("stage=%v, want initial", body["stage"])
	}

	base := "/ideation/sessions/" + sessionID
	rec, body = doJSON(t, handler, http.MethodPost, base+"/variations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status=%d body=%s", rec.Code, rec.Body.String())
	}
	if body["stage"] != "variations" {
		t.Fatalf("stage=%v, want variations", body["stage"])
	}
	ids := variationIDs(t, body)
	if len(ids) != 3 {
		t.Fatalf("variations=%d, want 3", len(ids))
	}

	// Combining with one selection is rejected with the message the UI shows.
	rec, body = doJSON(t, handler, http.MethodPost, base+"/select", fmt.Sprintf(`{"collection":"variations","item_id":%q}`, ids[0]))
	if rec.Code != http.StatusOK {
		t.Fatalf("select status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec, body = doJSON(t, handler, http.MethodPost, base+"/combined", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("combine status=%d, want 422", rec.Code)
	}
	if body["error"] != "validation_failed" || body["message"] == "" {
		t.Fatalf("combine error body=%v", body)
	}

	rec, _ = doJSON(t, handler, http.MethodPost, base+"/select", fmt.Sprintf(`{"collection":"variations","item_id":%q}`, ids[1]))
	if rec.Code != http.StatusOK {
		t.Fatalf("select status=%d", rec.Code)
	}
	rec, body = doJSON(t, handler, http.MethodPost, base+"/combined", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("combine status=%d body=%s", rec.Code, rec.Body.String())
	}
	if body["stage"] != "combined" {
		t.Fatalf("stage=%v, want combined", body["stage"])
	}
	concepts := body["combined_concepts"].([]any)
	if len(concepts) != 2 {
		t.Fatalf("concepts=%d, want 2", len(concepts))
	}
	conceptID := concepts[0].(map[string]any)["concept_id"].(string)

	rec, _ = doJSON(t, handler, http.MethodPost, base+"/select", fmt.Sprintf(`{"collection":"combined","item_id":%q}`, conceptID))
	if rec.Code != http.StatusOK {
		t.Fatalf("select concept status=%d", rec.Code)
	}

	rec, body = doJSON(t, handler, http.MethodPost, base+"/commit", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("commit status=%d body=%s", rec.Code, rec.Body.String())
	}
	ideaID, _ := body["idea_id"].(string)
	if ideaID == "" {
		t.Fatalf("no idea_id in commit response: %v", body)
	}
	if body["status"] != "draft" {
		t.Fatalf("status=%v, want draft", body["status"])
	}
	if body["created_by"] != "founder-1" {
		t.Fatalf("created_by=%v", body["created_by"])
	}

	rec, body = doJSON(t, handler, http.MethodGet, "/ideas/"+ideaID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get idea status=%d", rec.Code)
	}
	feedback := body["ai_feedback"].(map[string]any)
	sources := feedback["original_variations"].([]any)
	if len(sources) != 2 {
		t.Fatalf("original variations=%d, want 2", len(sources))
	}
	if feedback["combined_concept"] == nil {
		t.Fatalf("combined concept missing from persisted feedback")
	}

	rec, body = doJSON(t, handler, http.MethodGet, "/ideas", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list ideas status=%d", rec.Code)
	}
	if ideas := body["ideas"].([]any); len(ideas) != 1 {
		t.Fatalf("ideas=%d, want 1", len(ideas))
	}
}

func TestEditBufferOverHTTP(t *testing.T) {
	handler := newTestHandler(t)

	_, body := doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{"title":"Seed"}`)
	sessionID := body["session_id"].(string)
	base := "/ideation/sessions/" + sessionID

	_, body = doJSON(t, handler, http.MethodPost, base+"/variations", "")
	id := variationIDs(t, body)[0]

	rec, body := doJSON(t, handler, http.MethodPost, base+"/edit/begin", fmt.Sprintf(`{"collection":"variations","item_id":%q}`, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit begin status=%d body=%s", rec.Code, rec.Body.String())
	}
	buffers := body["edit_buffers"].(map[string]any)
	if _, ok := buffers[id]; !ok {
		t.Fatalf("no edit buffer for %s: %v", id, buffers)
	}

	rec, _ = doJSON(t, handler, http.MethodPost, base+"/edit/update", fmt.Sprintf(`{"collection":"variations","item_id":%q,"field":"title","value":"Edited"}`, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit update status=%d", rec.Code)
	}

	rec, body = doJSON(t, handler, http.MethodPost, base+"/edit/commit", fmt.Sprintf(`{"collection":"variations","item_id":%q}`, id))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit commit status=%d", rec.Code)
	}
	for _, entry := range body["variations"].([]any) {
		v := entry.(map[string]any)
		if v["variation_id"] == id && v["title"] != "Edited" {
			t.Fatalf("title=%v after commit, want Edited", v["title"])
		}
	}
	if _, ok := body["edit_buffers"]; ok {
		t.Fatalf("edit buffers should be empty after commit: %v", body["edit_buffers"])
	}
}

func TestErrorMapping(t *testing.T) {
	handler := newTestHandler(t)

	rec, body := doJSON(t, handler, http.MethodGet, "/ideation/sessions/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound || body["error"] != "not_found" {
		t.Fatalf("unknown session status=%d body=%v", rec.Code, body)
	}

	rec, body = doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{"title":"x", "bogus": true}`)
	if rec.Code != http.StatusBadRequest || body["error"] != "invalid_json" {
		t.Fatalf("unknown field status=%d body=%v", rec.Code, body)
	}

	// Generating with a blank seed title fails the precondition.
	_, body = doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{}`)
	sessionID := body["session_id"].(string)
	rec, body = doJSON(t, handler, http.MethodPost, "/ideation/sessions/"+sessionID+"/variations", "")
	if rec.Code != http.StatusUnprocessableEntity || body["error"] != "validation_failed" {
		t.Fatalf("blank seed status=%d body=%v", rec.Code, body)
	}

	rec, body = doJSON(t, handler, http.MethodGet, "/ideas/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound || body["error"] != "not_found" {
		t.Fatalf("unknown idea status=%d body=%v", rec.Code, body)
	}
}

// A backend failure surfaces as 502 with a human-readable message naming
// the failed action, without leaking the provider error.
func TestGenerationFailureMessageOverHTTP(t *testing.T) {
	handler := newTestHandlerWithClient(t, downGenClient{})

	_, body := doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{"title":"Seed"}`)
	sessionID := body["session_id"].(string)

	rec, body := doJSON(t, handler, http.MethodPost, "/ideation/sessions/"+sessionID+"/variations", "")
	if rec.Code != http.StatusBadGateway || body["error"] != "generation_failed" {
		t.Fatalf("status=%d body=%v, want 502 generation_failed", rec.Code, body)
	}
	msg, _ := body["message"].(string)
	if msg == "" {
		t.Fatalf("no message in error body: %v", body)
	}
	if strings.Contains(msg, "upstream returned 500") {
		t.Fatalf("provider error leaked to the client: %q", msg)
	}
}

func TestDeleteSessionOverHTTP(t *testing.T) {
	handler := newTestHandler(t)

	_, body := doJSON(t, handler, http.MethodPost, "/ideation/sessions", `{"title":"Seed"}`)
	sessionID := body["session_id"].(string)

	rec, _ := doJSON(t, handler, http.MethodDelete, "/ideation/sessions/"+sessionID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d, want 204", rec.Code)
	}
	rec, _ = doJSON(t, handler, http.MethodGet, "/ideation/sessions/"+sessionID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d, want 404", rec.Code)
	}
}
