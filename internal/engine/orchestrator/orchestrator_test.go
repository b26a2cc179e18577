package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/engine/promotion"
	"github.com/bench-arena/bench-arena/internal/engine/scheduler"
	"github.com/bench-arena/bench-arena/internal/engine/scoring"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

// fakeStorage is a minimal in-memory storage for driving the phase machine.
type fakeStorage struct {
	abstractions.Storage
	tournament   *api.TournamentResource
	epoch        *api.EpochResource
	participants []api.ParticipantResource
	runs         []api.RunResource
	results      []api.ResultResource
	baseline     *api.BaselineResource

	currentDayUpdates []int
	completedWinner   string
	completedCalled   bool
	baselineSet       string
	createdBaselines  []*api.BaselineResource
}

func notFound(resourceType string, id string) error {
	return serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", resourceType, "ResourceId", id)
}

func (f *fakeStorage) WithLogger(_ *slog.Logger) abstractions.Storage      { return f }
func (f *fakeStorage) WithContext(_ context.Context) abstractions.Storage { return f }

func (f *fakeStorage) GetTournament(id string) (*api.TournamentResource, error) {
	if f.tournament == nil || f.tournament.ID != id {
		return nil, notFound(constants.ResourceTypeTournament, id)
	}
	copied := *f.tournament
	return &copied, nil
}

func (f *fakeStorage) GetTournaments(_ api.ArtifactCategory, phase api.TournamentPhase) ([]api.TournamentResource, error) {
	if f.tournament != nil && f.tournament.Phase == phase {
		return []api.TournamentResource{*f.tournament}, nil
	}
	return nil, nil
}

func (f *fakeStorage) UpdateTournamentPhase(_ string, phase api.TournamentPhase, currentDay int) error {
	f.tournament.Phase = phase
	f.tournament.CurrentDay = currentDay
	return nil
}

func (f *fakeStorage) UpdateTournamentCurrentDay(_ string, currentDay int) error {
	f.currentDayUpdates = append(f.currentDayUpdates, currentDay)
	f.tournament.CurrentDay = currentDay
	return nil
}

func (f *fakeStorage) SetTournamentBaseline(_ string, baselineID string) error {
	f.baselineSet = baselineID
	return nil
}

func (f *fakeStorage) CompleteTournament(_ string, winnerHotkey string, baselineBeaten bool, _ time.Time) error {
	f.completedCalled = true
	f.completedWinner = winnerHotkey
	f.tournament.Phase = api.PhaseCompleted
	f.tournament.WinnerHotkey = winnerHotkey
	f.tournament.BaselineBeaten = baselineBeaten
	return nil
}

func (f *fakeStorage) CreateEpoch(epoch *api.EpochResource) (*api.EpochResource, error) {
	created := *epoch
	created.ID = "epoch-1"
	f.epoch = &created
	return &created, nil
}

func (f *fakeStorage) GetEpoch(tournamentID string) (*api.EpochResource, error) {
	if f.epoch == nil {
		return nil, notFound(constants.ResourceTypeEpoch, tournamentID)
	}
	return f.epoch, nil
}

func (f *fakeStorage) UpdateEpochStatus(_ string, status api.EpochStatus) error {
	f.epoch.Status = status
	return nil
}

func (f *fakeStorage) GetParticipants(_ string) ([]api.ParticipantResource, error) {
	return f.participants, nil
}

func (f *fakeStorage) GetParticipant(tournamentID string, hotkey string) (*api.ParticipantResource, error) {
	for i := range f.participants {
		if f.participants[i].Hotkey == hotkey {
			return &f.participants[i], nil
		}
	}
	return nil, notFound(constants.ResourceTypeParticipant, hotkey)
}

func (f *fakeStorage) CreateParticipant(participant *api.ParticipantResource) (*api.ParticipantResource, error) {
	created := *participant
	created.ID = "participant-" + participant.Hotkey
	f.participants = append(f.participants, created)
	return &created, nil
}

func (f *fakeStorage) UpdateParticipantStatus(_ string, hotkey string, status api.ParticipantStatus) error {
	for i := range f.participants {
		if f.participants[i].Hotkey == hotkey {
			f.participants[i].Status = status
		}
	}
	return nil
}

func (f *fakeStorage) DisqualifyParticipant(_ string, hotkey string, reason string, _ int) error {
	for i := range f.participants {
		if f.participants[i].Hotkey == hotkey {
			f.participants[i].Status = api.ParticipantDisqualified
			f.participants[i].Disqualified = true
			f.participants[i].DisqualifiedReason = reason
		}
	}
	return nil
}

func (f *fakeStorage) GetActiveBaseline(category api.ArtifactCategory) (*api.BaselineResource, error) {
	if f.baseline == nil {
		return nil, notFound(constants.ResourceTypeBaseline, string(category))
	}
	return f.baseline, nil
}

func (f *fakeStorage) CreateBaseline(baseline *api.BaselineResource) (*api.BaselineResource, error) {
	created := *baseline
	created.ID = fmt.Sprintf("baseline-new-%d", len(f.createdBaselines)+1)
	f.createdBaselines = append(f.createdBaselines, &created)
	return &created, nil
}

func (f *fakeStorage) SetBaselineImage(id string, imageRef string) error {
	for _, baseline := range f.createdBaselines {
		if baseline.ID == id {
			baseline.ImageRef = imageRef
		}
	}
	return nil
}

func (f *fakeStorage) UpdateBaselineStatus(id string, status api.BaselineStatus) error {
	for _, baseline := range f.createdBaselines {
		if baseline.ID == id {
			baseline.Status = status
		}
	}
	return nil
}

func (f *fakeStorage) ActivateBaseline(id string, previousID string, _ time.Time) error {
	if f.baseline != nil && f.baseline.ID == previousID {
		f.baseline.Status = api.BaselineDeprecated
	}
	for _, baseline := range f.createdBaselines {
		if baseline.ID == id {
			baseline.Status = api.BaselineActive
			f.baseline = baseline
		}
	}
	return nil
}

func (f *fakeStorage) GetRunsForDay(_ string, testDate time.Time) ([]api.RunResource, error) {
	var matching []api.RunResource
	for i := range f.runs {
		if f.runs[i].TestDate.Equal(api.Day(testDate)) {
			matching = append(matching, f.runs[i])
		}
	}
	return matching, nil
}

func (f *fakeStorage) GetParticipantRuns(_ string, hotkey string) ([]api.RunResource, error) {
	var matching []api.RunResource
	for i := range f.runs {
		if f.runs[i].Hotkey == hotkey {
			matching = append(matching, f.runs[i])
		}
	}
	return matching, nil
}

func (f *fakeStorage) CreateRun(run *api.RunResource) (*api.RunResource, error) {
	created := *run
	created.ID = "run-" + created.Hotkey + "-" + created.Network
	f.runs = append(f.runs, created)
	return &created, nil
}

func (f *fakeStorage) UpdateRunStatus(id string, status api.RunStatus) error {
	for i := range f.runs {
		if f.runs[i].ID == id {
			f.runs[i].Status = status
		}
	}
	return nil
}

func (f *fakeStorage) UpdateRunOutcome(id string, outcome *api.RunOutcome) error {
	for i := range f.runs {
		if f.runs[i].ID == id {
			f.runs[i].Status = outcome.Status
			f.runs[i].ExecutionSeconds = outcome.ExecutionSeconds
			if outcome.Metrics != nil {
				f.runs[i].Metrics = *outcome.Metrics
			}
		}
	}
	return nil
}

func (f *fakeStorage) UpsertResult(result *api.ResultResource) error {
	f.results = append(f.results, *result)
	return nil
}

type fakeSandbox struct{}

func (s *fakeSandbox) Name() string { return "fake" }
func (s *fakeSandbox) Run(_ context.Context, _ *abstractions.SandboxSpec) (*abstractions.SandboxOutcome, error) {
	return &abstractions.SandboxOutcome{ExitCode: 0, Duration: 30 * time.Second}, nil
}

type fakeDatasets struct{}

func (d *fakeDatasets) FetchDataset(_ context.Context, _ string, _ time.Time, _ int) (string, error) {
	return "/data", nil
}
func (d *fakeDatasets) PrepareMount(_ context.Context, datasetPath string) (string, error) {
	return datasetPath, nil
}

type fakeValidator struct{}

func (v *fakeValidator) ValidateRun(_ context.Context, _ api.ArtifactCategory, _ string, _ string, _ string, _ int) (*api.RunMetrics, error) {
	return &api.RunMetrics{PatternRecall: 1.0, DataCorrectnessPassed: true}, nil
}

type fakeBuilder struct {
	forkErr error
}

func (b *fakeBuilder) ForkRepository(_ context.Context, _ string, _ string, _ api.ArtifactCategory, _ string) (string, error) {
	if b.forkErr != nil {
		return "", b.forkErr
	}
	return "/baselines/analytics/v1.1.0", nil
}
func (b *fakeBuilder) BuildImage(_ context.Context, _ string, _ string, tag string) (string, error) {
	return "bench-arena/baseline:" + tag, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(store *fakeStorage) *orchestrator.Orchestrator {
	return newOrchestratorWithBuilder(store, &fakeBuilder{})
}

func newOrchestratorWithBuilder(store *fakeStorage, builder *fakeBuilder) *orchestrator.Orchestrator {
	logger := testLogger()
	daySched := scheduler.New(store, &fakeSandbox{}, &fakeDatasets{}, &fakeValidator{}, logger, nil, time.Hour)
	scoringEngine := scoring.New(store, logger, time.Hour)
	promotionWorkflow := promotion.New(store, builder, logger, nil)
	return orchestrator.New(store, daySched, scoringEngine, promotionWorkflow, logger, nil)
}

// The tournament runs 2026-08-03 through 2026-08-09 with registration on
// the two days before.
func testTournament(phase api.TournamentPhase) *api.TournamentResource {
	tournament := &api.TournamentResource{Phase: phase}
	tournament.ID = "t-1"
	tournament.Name = "august-analytics"
	tournament.Category = api.CategoryAnalytics
	tournament.RegistrationStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	tournament.RegistrationEnd = time.Date(2026, 8, 2, 23, 59, 59, 0, time.UTC)
	tournament.CompetitionStart = time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	tournament.CompetitionEnd = time.Date(2026, 8, 9, 0, 0, 0, 0, time.UTC)
	tournament.EpochDays = 7
	tournament.MaxParticipants = 8
	tournament.TestNetworks = []string{"ethereum"}
	tournament.TestWindowDays = []int{30}
	return tournament
}

func TestProcessDraft(t *testing.T) {
	t.Run("before the registration window nothing happens", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseDraft)}
		o := newOrchestrator(store)

		now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseDraft {
			t.Errorf("phase = %v, want DRAFT", store.tournament.Phase)
		}
	})

	t.Run("registration opens and the baseline participant is seeded", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseDraft)}
		store.baseline = &api.BaselineResource{
			Category:         api.CategoryAnalytics,
			Version:          "v1.0.0",
			SourceRepository: "https://github.com/bench-arena/baseline-analytics",
			CommitHash:       "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			Status:           api.BaselineActive,
		}
		store.baseline.ID = "baseline-1"
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseRegistration {
			t.Fatalf("phase = %v, want REGISTRATION", store.tournament.Phase)
		}
		if len(store.participants) != 1 {
			t.Fatalf("participants = %d, want the seeded baseline", len(store.participants))
		}
		seeded := store.participants[0]
		if seeded.Type != api.ParticipantBaseline || seeded.RegistrationOrder != 0 {
			t.Errorf("seeded participant = %+v, want baseline with order 0", seeded)
		}
		if store.baselineSet != "baseline-1" {
			t.Errorf("tournament baseline = %q, want baseline-1", store.baselineSet)
		}
	})

	t.Run("a category without an active baseline competes without one", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseDraft)}
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseRegistration {
			t.Errorf("phase = %v, want REGISTRATION", store.tournament.Phase)
		}
		if len(store.participants) != 0 {
			t.Errorf("participants = %d, want none", len(store.participants))
		}
	})
}

func TestProcessRegistration(t *testing.T) {
	t.Run("open window keeps the phase", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseRegistration)}
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseRegistration {
			t.Errorf("phase = %v, want REGISTRATION", store.tournament.Phase)
		}
	})

	t.Run("window end creates the epoch and activates participants", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseRegistration)}
		store.participants = []api.ParticipantResource{
			{Hotkey: "miner-aaaa0001", Type: api.ParticipantMiner, Status: api.ParticipantRegistered},
		}
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 3, 0, 30, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseInProgress || store.tournament.CurrentDay != 1 {
			t.Fatalf("phase = %v day = %d, want IN_PROGRESS day 1", store.tournament.Phase, store.tournament.CurrentDay)
		}
		if store.epoch == nil || store.epoch.Status != api.EpochRunning {
			t.Fatalf("epoch = %+v, want RUNNING", store.epoch)
		}
		if store.participants[0].Status != api.ParticipantActive {
			t.Errorf("participant status = %v, want ACTIVE", store.participants[0].Status)
		}
	})
}

func TestProcessInProgress(t *testing.T) {
	t.Run("a mid-window tick runs the day once", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseInProgress)}
		store.tournament.CurrentDay = 1
		store.epoch = &api.EpochResource{Status: api.EpochRunning}
		store.epoch.ID = "epoch-1"
		store.participants = []api.ParticipantResource{
			{Hotkey: "miner-aaaa0001", Type: api.ParticipantMiner, Status: api.ParticipantActive},
		}
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.CurrentDay != 3 {
			t.Errorf("current day = %d, want 3", store.tournament.CurrentDay)
		}
		if len(store.runs) != 1 {
			t.Fatalf("runs = %d, want 1", len(store.runs))
		}

		// a repeated tick for the same day is a no-op
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("repeated ProcessTournament failed: %v", err)
		}
		if len(store.runs) != 1 {
			t.Errorf("runs after repeat = %d, want 1", len(store.runs))
		}
	})

	t.Run("current day never moves backwards", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseInProgress)}
		store.tournament.CurrentDay = 5
		store.epoch = &api.EpochResource{Status: api.EpochRunning}
		store.epoch.ID = "epoch-1"
		o := newOrchestrator(store)

		// day 3 of the window, while the tournament already reached day 5
		now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if len(store.currentDayUpdates) != 0 {
			t.Errorf("current day updates = %v, want none", store.currentDayUpdates)
		}
		if store.tournament.CurrentDay != 5 {
			t.Errorf("current day = %d, want 5", store.tournament.CurrentDay)
		}
	})

	t.Run("past the window the epoch closes and scoring begins", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseInProgress)}
		store.tournament.CurrentDay = 7
		store.epoch = &api.EpochResource{Status: api.EpochRunning}
		store.epoch.ID = "epoch-1"
		o := newOrchestrator(store)

		now := time.Date(2026, 8, 10, 1, 0, 0, 0, time.UTC)
		if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
			t.Fatalf("ProcessTournament failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseScoring {
			t.Errorf("phase = %v, want SCORING", store.tournament.Phase)
		}
		if store.epoch.Status != api.EpochCompleted {
			t.Errorf("epoch status = %v, want COMPLETED", store.epoch.Status)
		}
	})
}

func TestProcessScoring(t *testing.T) {
	store := &fakeStorage{tournament: testTournament(api.PhaseScoring)}
	store.tournament.CurrentDay = 7
	store.participants = []api.ParticipantResource{
		{Hotkey: "miner-aaaa0001", Type: api.ParticipantMiner, Status: api.ParticipantActive},
	}
	testDate, _ := api.ParseDay("2026-08-03")
	store.runs = []api.RunResource{{
		Hotkey:           "miner-aaaa0001",
		TestDate:         testDate,
		Status:           api.RunCompleted,
		ExecutionSeconds: 60,
		Metrics:          api.RunMetrics{PatternRecall: 1.0, DataCorrectnessPassed: true},
	}}
	o := newOrchestrator(store)

	now := time.Date(2026, 8, 10, 2, 0, 0, 0, time.UTC)
	if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
		t.Fatalf("ProcessTournament failed: %v", err)
	}
	if !store.completedCalled || store.completedWinner != "miner-aaaa0001" {
		t.Errorf("completion = %v winner = %q, want miner-aaaa0001", store.completedCalled, store.completedWinner)
	}
	if store.tournament.Phase != api.PhaseCompleted {
		t.Errorf("phase = %v, want COMPLETED", store.tournament.Phase)
	}
	if len(store.results) != 1 {
		t.Errorf("results = %d, want 1", len(store.results))
	}
}

// A promotion failure must keep the tournament in SCORING so the next tick
// can retry it; once the build succeeds the tournament completes and a
// second retry does not promote again.
func TestProcessScoringRetriesFailedPromotion(t *testing.T) {
	store := &fakeStorage{tournament: testTournament(api.PhaseScoring)}
	store.tournament.CurrentDay = 7
	store.baseline = &api.BaselineResource{
		Category:           api.CategoryAnalytics,
		Version:            "v1.0.0",
		Status:             api.BaselineActive,
		OriginTournamentID: "t-0",
	}
	store.baseline.ID = "baseline-old"
	store.participants = []api.ParticipantResource{
		{Hotkey: "baseline-analytics-v1.0.0", Type: api.ParticipantBaseline, RegistrationOrder: 0, Status: api.ParticipantActive},
		{
			Hotkey:            "miner-aaaa0001",
			Type:              api.ParticipantMiner,
			RegistrationOrder: 1,
			Status:            api.ParticipantActive,
			SourceRepository:  "https://github.com/acme/detector",
			CommitHash:        "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		},
	}
	testDate, _ := api.ParseDay("2026-08-03")
	store.runs = []api.RunResource{
		{
			Hotkey: "baseline-analytics-v1.0.0", TestDate: testDate, Status: api.RunCompleted,
			ExecutionSeconds: 100, Metrics: api.RunMetrics{PatternRecall: 0.8, DataCorrectnessPassed: true},
		},
		{
			Hotkey: "miner-aaaa0001", TestDate: testDate, Status: api.RunCompleted,
			ExecutionSeconds: 50, Metrics: api.RunMetrics{PatternRecall: 1.0, DataCorrectnessPassed: true},
		},
	}
	builder := &fakeBuilder{forkErr: errors.New("git clone failed")}
	o := newOrchestratorWithBuilder(store, builder)

	now := time.Date(2026, 8, 10, 2, 0, 0, 0, time.UTC)
	if err := o.ProcessTournament(context.Background(), store.tournament, now); err == nil {
		t.Fatalf("expected the promotion failure to propagate")
	}
	if store.tournament.Phase != api.PhaseScoring {
		t.Fatalf("phase = %v, want SCORING for a retry", store.tournament.Phase)
	}
	if store.completedCalled {
		t.Fatalf("tournament must not complete while the promotion is pending")
	}
	if len(store.createdBaselines) != 1 || store.createdBaselines[0].Status != api.BaselineFailed {
		t.Fatalf("baselines = %+v, want one FAILED row", store.createdBaselines)
	}
	if store.baseline.ID != "baseline-old" || store.baseline.Status != api.BaselineActive {
		t.Fatalf("active baseline = %+v, want baseline-old untouched", store.baseline)
	}

	// the build is fixed; the retried tick finishes the promotion
	builder.forkErr = nil
	if err := o.ProcessTournament(context.Background(), store.tournament, now); err != nil {
		t.Fatalf("retried ProcessTournament failed: %v", err)
	}
	if store.tournament.Phase != api.PhaseCompleted || store.completedWinner != "miner-aaaa0001" {
		t.Fatalf("phase = %v winner = %q, want COMPLETED/miner-aaaa0001", store.tournament.Phase, store.completedWinner)
	}
	if len(store.createdBaselines) != 2 {
		t.Fatalf("baselines = %d, want the failed row plus the promoted one", len(store.createdBaselines))
	}
	promoted := store.createdBaselines[1]
	if store.baseline != promoted || promoted.Status != api.BaselineActive || promoted.Version != "v1.1.0" {
		t.Fatalf("promoted baseline = %+v, want ACTIVE v1.1.0", promoted)
	}
}

func TestCancel(t *testing.T) {
	t.Run("a non-terminal tournament cancels", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseRegistration)}
		o := newOrchestrator(store)

		if err := o.Cancel(context.Background(), "t-1"); err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if store.tournament.Phase != api.PhaseCancelled {
			t.Errorf("phase = %v, want CANCELLED", store.tournament.Phase)
		}
	})

	t.Run("a terminal tournament rejects cancellation", func(t *testing.T) {
		store := &fakeStorage{tournament: testTournament(api.PhaseCompleted)}
		o := newOrchestrator(store)

		if err := o.Cancel(context.Background(), "t-1"); err == nil {
			t.Fatalf("expected an error cancelling a COMPLETED tournament")
		}
		if store.tournament.Phase != api.PhaseCompleted {
			t.Errorf("phase = %v, want COMPLETED unchanged", store.tournament.Phase)
		}
	})
}
