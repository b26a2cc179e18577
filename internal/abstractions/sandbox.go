package abstractions

import (
	"context"
	"time"

	"github.com/bench-arena/bench-arena/pkg/api"
)

// SandboxSpec describes one containerised artifact execution. The dataset
// mount is read-only inside the container; credentials and run parameters
// travel as environment variables.
type SandboxSpec struct {
	RunID        string
	TournamentID string
	Hotkey       string
	ImageRef     string
	DatasetPath  string
	OutputPath   string
	DatabaseName string
	Network      string
	WindowDays   int
	Env          []api.EnvVar
	Timeout      time.Duration
}

// SandboxOutcome is the observed result of one sandbox execution. TimedOut
// is set when the wall-clock limit expired before the process finished.
type SandboxOutcome struct {
	ExitCode     int
	Duration     time.Duration
	MemoryPeakMB float64
	Output       string
	TimedOut     bool
}

// Sandbox runs untrusted artifacts in isolation. Concrete implementations
// hold the substrate-specific details (docker CLI, Kubernetes Jobs); no
// other place in the code should point directly at a substrate.
type Sandbox interface {
	Name() string
	Run(ctx context.Context, spec *SandboxSpec) (*SandboxOutcome, error)
}

// DatasetProvider stages the test data for one (network, day, window) cell.
type DatasetProvider interface {
	// FetchDataset ensures the dataset is available locally and returns its path.
	FetchDataset(ctx context.Context, network string, day time.Time, windowDays int) (string, error)
	// PrepareMount builds the sandbox-visible directory from a fetched
	// dataset. Only the allow-listed files are exposed; the ground-truth
	// file is never part of the mount.
	PrepareMount(ctx context.Context, datasetPath string) (string, error)
}

// OutputValidator scores one finished run by comparing the artifact's
// emitted findings against the staged ground truth.
type OutputValidator interface {
	ValidateRun(ctx context.Context, category api.ArtifactCategory, outputPath string, datasetPath string, network string, windowDays int) (*api.RunMetrics, error)
}

// ScanReport is the outcome of static admission checks over an artifact.
type ScanReport struct {
	Passed   bool
	Findings []string
}

// ArtifactScanner gates registration with static artifact checks.
type ArtifactScanner interface {
	ScanArtifact(ctx context.Context, sourceRepository string, commitHash string) (*ScanReport, error)
}

// ArtifactBuilder turns a winning artifact into the next baseline image.
type ArtifactBuilder interface {
	// ForkRepository snapshots the source repository at the given commit
	// into the baseline lineage and returns the new repository location.
	ForkRepository(ctx context.Context, sourceRepository string, commitHash string, category api.ArtifactCategory, version string) (string, error)
	// BuildImage builds and tags a container image from the repository at
	// the given commit and returns the image reference.
	BuildImage(ctx context.Context, repository string, commitHash string, tag string) (string, error)
}
