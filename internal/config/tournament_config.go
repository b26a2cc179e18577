package config

import "time"

// TournamentConfig holds the tournament defaults applied when a tournament
// is created without explicit values.
type TournamentConfig struct {
	EpochDays       int      `mapstructure:"epoch_days,omitempty"`
	MaxParticipants int      `mapstructure:"max_participants,omitempty"`
	TestNetworks    []string `mapstructure:"test_networks,omitempty"`
	TestWindowDays  []int    `mapstructure:"test_window_days,omitempty"`
	// RunTimeout is the wall-clock limit for a single sandbox run. A run
	// exceeding it is classified TIMEOUT and its participant fails the
	// time-limit gate at scoring.
	RunTimeout time.Duration `mapstructure:"run_timeout,omitempty"`
}

// SandboxConfig selects and parameterises the sandbox substrate.
type SandboxConfig struct {
	// Substrate is "docker" or "kubernetes". Local mode forces docker.
	Substrate   string `mapstructure:"substrate,omitempty"`
	Namespace   string `mapstructure:"namespace,omitempty"`
	DockerBin   string `mapstructure:"docker_bin,omitempty"`
	WorkDir     string `mapstructure:"work_dir,omitempty"`
	CPULimit    string `mapstructure:"cpu_limit,omitempty"`
	MemoryLimit string `mapstructure:"memory_limit,omitempty"`
}

// DatasetsConfig parameterises dataset staging for sandbox runs. When
// Bucket is empty the provider works against local datasets only.
type DatasetsConfig struct {
	BaseDir        string   `mapstructure:"base_dir"`
	MountAllowlist []string `mapstructure:"mount_allowlist,omitempty"`
	Bucket         string   `mapstructure:"bucket,omitempty"`
	Prefix         string   `mapstructure:"prefix,omitempty"`
	Endpoint       string   `mapstructure:"endpoint,omitempty"`
	Region         string   `mapstructure:"region,omitempty"`
	AccessKeyID    string   `mapstructure:"access_key_id,omitempty"`
	SecretKey      string   `mapstructure:"secret_key,omitempty"`
}

// SchedulerConfig drives the background task runner.
type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval,omitempty"`
	MaxRetries   int           `mapstructure:"max_retries,omitempty"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff,omitempty"`
}

// BaselinesConfig parameterises baseline promotion.
type BaselinesConfig struct {
	// RepositoryRoot is where promoted baseline forks are placed.
	RepositoryRoot string `mapstructure:"repository_root"`
	// ImageRepository is the image name prefix for promoted baselines.
	ImageRepository string `mapstructure:"image_repository"`
}
