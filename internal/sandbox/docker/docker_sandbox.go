package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
)

const (
	defaultDockerBin   = "docker"
	defaultCPULimit    = "2"
	defaultMemoryLimit = "4g"
	datasetMountPath   = "/data"
	outputMountPath    = "/output"
)

// DockerSandbox executes artifacts through the docker CLI. The dataset is
// mounted read-only, the network is disabled and the wall-clock limit is
// enforced through the run context.
type DockerSandbox struct {
	logger      *slog.Logger
	dockerBin   string
	cpuLimit    string
	memoryLimit string
}

func NewDockerSandbox(logger *slog.Logger, sandboxConfig *config.SandboxConfig) (abstractions.Sandbox, error) {
	sb := &DockerSandbox{
		logger:      logger,
		dockerBin:   defaultDockerBin,
		cpuLimit:    defaultCPULimit,
		memoryLimit: defaultMemoryLimit,
	}
	if sandboxConfig != nil {
		if sandboxConfig.DockerBin != "" {
			sb.dockerBin = sandboxConfig.DockerBin
		}
		if sandboxConfig.CPULimit != "" {
			sb.cpuLimit = sandboxConfig.CPULimit
		}
		if sandboxConfig.MemoryLimit != "" {
			sb.memoryLimit = sandboxConfig.MemoryLimit
		}
	}
	return sb, nil
}

func (s *DockerSandbox) Name() string {
	return "docker"
}

func (s *DockerSandbox) Run(ctx context.Context, spec *abstractions.SandboxSpec) (*abstractions.SandboxOutcome, error) {
	if spec.ImageRef == "" {
		return nil, fmt.Errorf("sandbox spec for run %s has no image", spec.RunID)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	args := []string{
		"run", "--rm",
		"--name", containerName(spec.RunID),
		"--network", "none",
		"--cpus", s.cpuLimit,
		"--memory", s.memoryLimit,
		"-v", fmt.Sprintf("%s:%s:ro", spec.DatasetPath, datasetMountPath),
		"-v", fmt.Sprintf("%s:%s", spec.OutputPath, outputMountPath),
		"-e", fmt.Sprintf("RUN_ID=%s", spec.RunID),
		"-e", fmt.Sprintf("DATABASE_NAME=%s", spec.DatabaseName),
		"-e", fmt.Sprintf("NETWORK=%s", spec.Network),
		"-e", fmt.Sprintf("WINDOW_DAYS=%d", spec.WindowDays),
	}
	for _, env := range spec.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", env.Name, env.Value))
	}
	args = append(args, spec.ImageRef)

	s.logger.Info("Starting sandbox container", "run_id", spec.RunID, "image", spec.ImageRef, "timeout", spec.Timeout)

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, s.dockerBin, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	outcome := &abstractions.SandboxOutcome{
		Duration: duration,
		Output:   output.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		// the CommandContext kill leaves the container behind with --rm
		// racing the daemon, so remove it explicitly
		s.removeContainer(spec.RunID)
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		return nil, fmt.Errorf("docker run for %s: %w", spec.RunID, err)
	}

	return outcome, nil
}

func (s *DockerSandbox) removeContainer(runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, s.dockerBin, "rm", "-f", containerName(runID))
	if err := cmd.Run(); err != nil {
		s.logger.Warn("Failed to remove timed out container", "run_id", runID, "error", err)
	}
}

func containerName(runID string) string {
	return "bench-run-" + strings.ToLower(runID)
}
