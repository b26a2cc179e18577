package api

import (
	"fmt"
	"time"
)

// TournamentPhase is the lifecycle phase of a tournament. Transitions are
// linear (DRAFT through COMPLETED); CANCELLED is reachable from any
// non-terminal phase and is terminal.
type TournamentPhase string

const (
	PhaseDraft        TournamentPhase = "DRAFT"
	PhaseRegistration TournamentPhase = "REGISTRATION"
	PhaseInProgress   TournamentPhase = "IN_PROGRESS"
	PhaseScoring      TournamentPhase = "SCORING"
	PhaseCompleted    TournamentPhase = "COMPLETED"
	PhaseCancelled    TournamentPhase = "CANCELLED"
)

func GetTournamentPhase(s string) (TournamentPhase, error) {
	switch TournamentPhase(s) {
	case PhaseDraft, PhaseRegistration, PhaseInProgress, PhaseScoring, PhaseCompleted, PhaseCancelled:
		return TournamentPhase(s), nil
	default:
		return TournamentPhase(s), fmt.Errorf("invalid tournament phase: %s", s)
	}
}

// IsTerminal reports whether no further transitions are allowed from p.
func (p TournamentPhase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// TournamentConfig represents the caller-specified definition of a tournament.
// Date fields are calendar days; ordering is validated at creation time.
type TournamentConfig struct {
	Name              string           `json:"name" validate:"required"`
	Category          ArtifactCategory `json:"category" validate:"required,oneof=analytics ml"`
	RegistrationStart time.Time        `json:"registration_start" validate:"required"`
	RegistrationEnd   time.Time        `json:"registration_end" validate:"required"`
	CompetitionStart  time.Time        `json:"competition_start" validate:"required"`
	CompetitionEnd    time.Time        `json:"competition_end" validate:"required"`
	EpochDays         int              `json:"epoch_days" validate:"required,min=1"`
	MaxParticipants   int              `json:"max_participants" validate:"required,min=1"`
	TestNetworks      []string         `json:"test_networks" validate:"required,min=1"`
	TestWindowDays    []int            `json:"test_window_days" validate:"required,min=1,dive,min=1"`
}

// Validate checks the date ordering constraints that struct tags cannot express.
func (c *TournamentConfig) Validate() error {
	if !c.RegistrationStart.Before(c.RegistrationEnd) {
		return fmt.Errorf("registration_start must be before registration_end")
	}
	if c.RegistrationEnd.After(c.CompetitionStart) {
		return fmt.Errorf("registration_end must not be after competition_start")
	}
	if !c.CompetitionStart.Before(c.CompetitionEnd) {
		return fmt.Errorf("competition_start must be before competition_end")
	}
	if got := DaysBetween(c.CompetitionStart, c.CompetitionEnd) + 1; got != c.EpochDays {
		return fmt.Errorf("competition window spans %d days, epoch_days is %d", got, c.EpochDays)
	}
	return nil
}

// TournamentResource represents a stored tournament.
type TournamentResource struct {
	Resource
	TournamentConfig
	Phase          TournamentPhase `json:"phase"`
	CurrentDay     int             `json:"current_day"`
	BaselineID     string          `json:"baseline_id,omitempty"`
	WinnerHotkey   string          `json:"winner_hotkey,omitempty"`
	BaselineBeaten bool            `json:"baseline_beaten"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// TournamentResourceList represents a list of tournaments
type TournamentResourceList struct {
	Items []TournamentResource `json:"items"`
	Page
}

// EpochStatus is the lifecycle status of a competition epoch.
type EpochStatus string

const (
	EpochPending   EpochStatus = "PENDING"
	EpochRunning   EpochStatus = "RUNNING"
	EpochCompleted EpochStatus = "COMPLETED"
)

// EpochResource represents the competition window of a tournament. One epoch
// per tournament; runs reference their owning epoch.
type EpochResource struct {
	Resource
	TournamentID string      `json:"tournament_id"`
	StartDate    time.Time   `json:"start_date"`
	EndDate      time.Time   `json:"end_date"`
	Status       EpochStatus `json:"status"`
}
