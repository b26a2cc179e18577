package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/executioncontext"
	"github.com/bench-arena/bench-arena/internal/handlers"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/internal/validation"
	"github.com/bench-arena/bench-arena/pkg/api"
)

type fakeStorage struct {
	abstractions.Storage
	tournament *api.TournamentResource
	created    *api.TournamentConfig
	results    []api.ResultResource
	baselines  []api.BaselineResource
	runs       []api.RunResource
	pingErr    error
}

func (f *fakeStorage) WithLogger(_ *slog.Logger) abstractions.Storage      { return f }
func (f *fakeStorage) WithContext(_ context.Context) abstractions.Storage { return f }

func (f *fakeStorage) Ping(_ time.Duration) error { return f.pingErr }

func (f *fakeStorage) GetDatasourceName() string { return "sqlite" }

func (f *fakeStorage) CreateTournament(tournamentConfig *api.TournamentConfig) (*api.TournamentResource, error) {
	f.created = tournamentConfig
	tournament := &api.TournamentResource{TournamentConfig: *tournamentConfig, Phase: api.PhaseDraft}
	tournament.ID = "t-1"
	return tournament, nil
}

func (f *fakeStorage) GetTournament(id string) (*api.TournamentResource, error) {
	if f.tournament == nil || f.tournament.ID != id {
		return nil, serviceerrors.NewServiceError(messages.ResourceNotFound,
			"Type", constants.ResourceTypeTournament, "ResourceId", id)
	}
	return f.tournament, nil
}

func (f *fakeStorage) GetTournaments(_ api.ArtifactCategory, _ api.TournamentPhase) ([]api.TournamentResource, error) {
	if f.tournament == nil {
		return nil, nil
	}
	return []api.TournamentResource{*f.tournament}, nil
}

func (f *fakeStorage) GetResults(_ string) ([]api.ResultResource, error) {
	return f.results, nil
}

func (f *fakeStorage) GetBaselines(_ api.ArtifactCategory) ([]api.BaselineResource, error) {
	return f.baselines, nil
}

func (f *fakeStorage) GetRunsForDay(_ string, _ time.Time) ([]api.RunResource, error) {
	return f.runs, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newContext(method string, uri string, rawQuery string, body string) *executioncontext.ExecutionContext {
	var reader io.ReadCloser
	if body != "" {
		reader = io.NopCloser(strings.NewReader(body))
	}
	return executioncontext.NewExecutionContext(context.Background(), "req-1", testLogger(),
		method, uri, "http://localhost:8080", rawQuery, http.Header{}, reader, time.Minute)
}

func newHandlers(t *testing.T, store *fakeStorage) *handlers.Handlers {
	t.Helper()
	validate, err := validation.New()
	if err != nil {
		t.Fatalf("Failed to build validator: %v", err)
	}
	defaults := &config.TournamentConfig{
		EpochDays:       7,
		MaxParticipants: 32,
		TestNetworks:    []string{"ethereum"},
		TestWindowDays:  []int{30},
	}
	return handlers.New(store, nil, nil, validate, defaults)
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", recorder.Body.String(), err)
	}
}

func draftTournament() *api.TournamentResource {
	tournament := &api.TournamentResource{Phase: api.PhaseDraft}
	tournament.ID = "t-1"
	tournament.Name = "august-analytics"
	tournament.Category = api.CategoryAnalytics
	return tournament
}

func TestHandleHealth(t *testing.T) {
	h := newHandlers(t, &fakeStorage{})
	recorder := httptest.NewRecorder()

	h.HandleHealth(newContext(http.MethodGet, "/api/v1/health", "", ""), recorder, "build-7", "2026-08-28")

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	response := handlers.HealthResponse{}
	decodeBody(t, recorder, &response)
	if response.Status != "healthy" || response.Build != "build-7" {
		t.Errorf("response = %+v", response)
	}
}

func TestHandleStatus(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleStatus(newContext(http.MethodGet, "/api/v1/status", "", ""), recorder, "0.0.1")

		response := handlers.StatusResponse{}
		decodeBody(t, recorder, &response)
		if response.Status != "healthy" || response.Datasource != "sqlite" {
			t.Errorf("response = %+v", response)
		}
	})

	t.Run("degraded when the storage ping fails", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{pingErr: errors.New("connection refused")})
		recorder := httptest.NewRecorder()

		h.HandleStatus(newContext(http.MethodGet, "/api/v1/status", "", ""), recorder, "0.0.1")

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := handlers.StatusResponse{}
		decodeBody(t, recorder, &response)
		if response.Status != "degraded" {
			t.Errorf("status = %q, want degraded", response.Status)
		}
	})

	t.Run("rejects the wrong method", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleStatus(newContext(http.MethodPost, "/api/v1/status", "", ""), recorder, "0.0.1")

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", recorder.Code)
		}
	})
}

func TestHandleCreateTournament(t *testing.T) {
	t.Run("applies the configured defaults", func(t *testing.T) {
		store := &fakeStorage{}
		h := newHandlers(t, store)
		recorder := httptest.NewRecorder()
		body := `{
			"name": "august-analytics",
			"category": "analytics",
			"registration_start": "2026-08-01T00:00:00Z",
			"registration_end": "2026-08-02T23:59:59Z",
			"competition_start": "2026-08-03T00:00:00Z",
			"competition_end": "2026-08-09T23:59:59Z"
		}`

		h.HandleCreateTournament(newContext(http.MethodPost, "/api/v1/tournaments", "", body), recorder)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", recorder.Code, recorder.Body.String())
		}
		if store.created.EpochDays != 7 || store.created.MaxParticipants != 32 {
			t.Errorf("defaults were not applied: %+v", store.created)
		}
		response := api.TournamentResource{}
		decodeBody(t, recorder, &response)
		if response.ID != "t-1" || response.Phase != api.PhaseDraft {
			t.Errorf("response = %+v", response)
		}
	})

	t.Run("rejects a payload without a name", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()
		body := `{
			"category": "analytics",
			"registration_start": "2026-08-01T00:00:00Z",
			"registration_end": "2026-08-02T23:59:59Z",
			"competition_start": "2026-08-03T00:00:00Z",
			"competition_end": "2026-08-09T23:59:59Z"
		}`

		h.HandleCreateTournament(newContext(http.MethodPost, "/api/v1/tournaments", "", body), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("rejects inverted competition dates", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()
		body := `{
			"name": "bad-dates",
			"category": "analytics",
			"registration_start": "2026-08-01T00:00:00Z",
			"registration_end": "2026-08-02T23:59:59Z",
			"competition_start": "2026-08-09T00:00:00Z",
			"competition_end": "2026-08-03T23:59:59Z"
		}`

		h.HandleCreateTournament(newContext(http.MethodPost, "/api/v1/tournaments", "", body), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})
}

func TestHandleGetTournament(t *testing.T) {
	t.Run("returns the tournament", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{tournament: draftTournament()})
		recorder := httptest.NewRecorder()

		h.HandleGetTournament(newContext(http.MethodGet, "/api/v1/tournaments/t-1", "", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := api.TournamentResource{}
		decodeBody(t, recorder, &response)
		if response.ID != "t-1" {
			t.Errorf("response = %+v", response)
		}
	})

	t.Run("maps an unknown id to 404", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleGetTournament(newContext(http.MethodGet, "/api/v1/tournaments/no-such", "", ""), recorder)

		if recorder.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", recorder.Code)
		}
	})
}

func TestHandleListTournaments(t *testing.T) {
	t.Run("lists everything without filters", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{tournament: draftTournament()})
		recorder := httptest.NewRecorder()

		h.HandleListTournaments(newContext(http.MethodGet, "/api/v1/tournaments", "", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := api.TournamentResourceList{}
		decodeBody(t, recorder, &response)
		if len(response.Items) != 1 || response.Page.TotalCount != 1 {
			t.Errorf("response = %+v", response)
		}
	})

	t.Run("rejects an unknown phase filter", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleListTournaments(newContext(http.MethodGet, "/api/v1/tournaments", "phase=PAUSED", ""), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})
}

func TestHandleGetLeaderboard(t *testing.T) {
	t.Run("returns the ranked results", func(t *testing.T) {
		store := &fakeStorage{
			tournament: draftTournament(),
			results: []api.ResultResource{
				{Hotkey: "miner-aaaa0001", Rank: 1, IsWinner: true},
				{Hotkey: "miner-bbbb0002", Rank: 2},
			},
		}
		h := newHandlers(t, store)
		recorder := httptest.NewRecorder()

		h.HandleGetLeaderboard(newContext(http.MethodGet, "/api/v1/tournaments/t-1/leaderboard", "", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := api.ResultResourceList{}
		decodeBody(t, recorder, &response)
		if len(response.Items) != 2 || response.Items[0].Rank != 1 {
			t.Errorf("response = %+v", response)
		}
	})

	t.Run("maps an unknown tournament to 404", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleGetLeaderboard(newContext(http.MethodGet, "/api/v1/tournaments/no-such/leaderboard", "", ""), recorder)

		if recorder.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", recorder.Code)
		}
	})
}

func TestHandleListBaselines(t *testing.T) {
	t.Run("requires the category parameter", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleListBaselines(newContext(http.MethodGet, "/api/v1/baselines", "", ""), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleListBaselines(newContext(http.MethodGet, "/api/v1/baselines", "category=quantum", ""), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("lists the lineage", func(t *testing.T) {
		store := &fakeStorage{baselines: []api.BaselineResource{
			{Category: api.CategoryAnalytics, Version: "v1.1.0", Status: api.BaselineActive},
			{Category: api.CategoryAnalytics, Version: "v1.0.0", Status: api.BaselineDeprecated},
		}}
		h := newHandlers(t, store)
		recorder := httptest.NewRecorder()

		h.HandleListBaselines(newContext(http.MethodGet, "/api/v1/baselines", "category=analytics", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := api.BaselineResourceList{}
		decodeBody(t, recorder, &response)
		if len(response.Items) != 2 || response.Items[0].Version != "v1.1.0" {
			t.Errorf("response = %+v", response)
		}
	})
}

func TestHandleGetDayRuns(t *testing.T) {
	t.Run("requires the date parameter", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleGetDayRuns(newContext(http.MethodGet, "/api/v1/tournaments/t-1/runs", "", ""), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleGetDayRuns(newContext(http.MethodGet, "/api/v1/tournaments/t-1/runs", "date=03-08-2026", ""), recorder)

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", recorder.Code)
		}
	})

	t.Run("returns the runs of the day", func(t *testing.T) {
		store := &fakeStorage{runs: []api.RunResource{
			{Hotkey: "baseline-analytics-v1.0.0", RunOrder: 1, Status: api.RunCompleted},
			{Hotkey: "miner-aaaa0001", RunOrder: 2, Status: api.RunCompleted},
		}}
		h := newHandlers(t, store)
		recorder := httptest.NewRecorder()

		h.HandleGetDayRuns(newContext(http.MethodGet, "/api/v1/tournaments/t-1/runs", "date=2026-08-03", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		response := api.RunResourceList{}
		decodeBody(t, recorder, &response)
		if len(response.Items) != 2 || response.Items[0].RunOrder != 1 {
			t.Errorf("response = %+v", response)
		}
	})
}

func TestHandleListParticipants(t *testing.T) {
	store := &fakeStorage{}
	h := newHandlers(t, store)
	recorder := httptest.NewRecorder()

	h.HandleListParticipants(newContext(http.MethodDelete, "/api/v1/tournaments/t-1/participants", "", ""), recorder)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", recorder.Code)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	t.Run("serves the embedded document", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleOpenAPI(newContext(http.MethodGet, "/openapi.yaml", "", ""), recorder)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if contentType := recorder.Header().Get("Content-Type"); contentType != "application/yaml" {
			t.Errorf("Content-Type = %q, want application/yaml", contentType)
		}
		if !strings.Contains(recorder.Body.String(), "openapi:") {
			t.Errorf("body does not look like an OpenAPI document: %q", recorder.Body.String()[:80])
		}
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		h := newHandlers(t, &fakeStorage{})
		recorder := httptest.NewRecorder()

		h.HandleOpenAPI(newContext(http.MethodPost, "/openapi.yaml", "", ""), recorder)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", recorder.Code)
		}
	})
}

func TestHandleDocs(t *testing.T) {
	h := newHandlers(t, &fakeStorage{})
	recorder := httptest.NewRecorder()

	h.HandleDocs(newContext(http.MethodGet, "/docs", "", ""), recorder)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if contentType := recorder.Header().Get("Content-Type"); contentType != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html", contentType)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "swagger-ui") {
		t.Errorf("docs page does not reference Swagger UI")
	}
	if !strings.Contains(body, "http://localhost:8080/openapi.yaml") {
		t.Errorf("docs page does not load the document from this service")
	}
}
