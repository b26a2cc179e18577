package api

// ParticipantType distinguishes competing miners from the baseline entrant.
type ParticipantType string

const (
	ParticipantMiner    ParticipantType = "miner"
	ParticipantBaseline ParticipantType = "baseline"
)

// ParticipantStatus is the lifecycle status of a tournament participant.
type ParticipantStatus string

const (
	ParticipantRegistered   ParticipantStatus = "REGISTERED"
	ParticipantActive       ParticipantStatus = "ACTIVE"
	ParticipantCompleted    ParticipantStatus = "COMPLETED"
	ParticipantFailed       ParticipantStatus = "FAILED"
	ParticipantDisqualified ParticipantStatus = "DISQUALIFIED"
)

// ParticipantConfig represents a registration request for a tournament.
// The commit hash is recorded verbatim and later pinned by baseline
// promotion; registration rejects requests without one.
type ParticipantConfig struct {
	Hotkey           string `json:"hotkey" validate:"required,min=8"`
	SourceRepository string `json:"source_repository" validate:"required,url"`
	CommitHash       string `json:"commit_hash" validate:"required,len=40,hexadecimal"`
	ImageRef         string `json:"image_ref,omitempty"`
}

// ParticipantResource represents a stored tournament participant.
type ParticipantResource struct {
	Resource
	TournamentID          string            `json:"tournament_id"`
	Hotkey                string            `json:"hotkey"`
	Type                  ParticipantType   `json:"type"`
	RegistrationOrder     int               `json:"registration_order"`
	SourceRepository      string            `json:"source_repository"`
	CommitHash            string            `json:"commit_hash"`
	ImageRef              string            `json:"image_ref,omitempty"`
	DatabaseName          string            `json:"database_name"`
	BaselineID            string            `json:"baseline_id,omitempty"`
	Status                ParticipantStatus `json:"status"`
	Disqualified          bool              `json:"disqualified"`
	DisqualifiedReason    string            `json:"disqualified_reason,omitempty"`
	DisqualifiedOnDay     int               `json:"disqualified_on_day,omitempty"`
}

// ParticipantResourceList represents a list of participants
type ParticipantResourceList struct {
	Items []ParticipantResource `json:"items"`
	Page
}

// Competing reports whether the participant is still eligible for run
// scheduling.
func (p *ParticipantResource) Competing() bool {
	return p.Status == ParticipantRegistered || p.Status == ParticipantActive
}
