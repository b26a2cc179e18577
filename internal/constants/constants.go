package constants

// Log field and path/query parameter names shared across packages.
const (
	LogFieldRequestID    = "request_id"
	LogFieldMethod       = "method"
	LogFieldURI          = "uri"
	LogFieldTournamentID = "tournament_id"
	LogFieldHotkey       = "hotkey"
	LogFieldPhase        = "phase"
	LogFieldDay          = "day"
	LogFieldRunID        = "run_id"
	LogFieldUserAgent    = "user_agent"
	LogFieldRemoteAddr   = "remote_addr"
	LogFieldUser         = "remote_user"
	LogFieldReferer      = "referer"

	PathParameterTournamentID = "tournament_id"
	PathParameterHotkey       = "hotkey"
	QueryParameterCategory    = "category"
	QueryParameterPhase       = "phase"
	QueryParameterDate        = "date"
)

// Resource type names used in error messages.
const (
	ResourceTypeTournament  = "tournament"
	ResourceTypeParticipant = "participant"
	ResourceTypeEpoch       = "epoch"
	ResourceTypeRun         = "run"
	ResourceTypeResult      = "result"
	ResourceTypeBaseline    = "baseline"
)

// Environment variables honoured outside the config files.
const (
	EnvVarTerminationFile = "TERMINATION_MESSAGE_FILE"
)
