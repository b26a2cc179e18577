package k8s

// Sandbox substrate that runs artifacts as Kubernetes batch Jobs.
import (
	"context"
	"fmt"
	"log/slog"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
)

const jobPollInterval = 5 * time.Second

type K8sSandbox struct {
	logger      *slog.Logger
	helper      *KubernetesHelper
	namespace   string
	cpuLimit    string
	memoryLimit string
}

// NewK8sSandbox creates a Kubernetes sandbox.
func NewK8sSandbox(logger *slog.Logger, sandboxConfig *config.SandboxConfig) (abstractions.Sandbox, error) {
	helper, err := NewKubernetesHelper()
	if err != nil {
		return nil, err
	}
	sb := &K8sSandbox{
		logger: logger,
		helper: helper,
	}
	configured := ""
	if sandboxConfig != nil {
		configured = sandboxConfig.Namespace
		sb.cpuLimit = sandboxConfig.CPULimit
		sb.memoryLimit = sandboxConfig.MemoryLimit
	}
	sb.namespace = resolveNamespace(configured)
	return sb, nil
}

func (s *K8sSandbox) Name() string {
	return "kubernetes"
}

// Run submits the artifact as a Job and waits for a terminal state. The
// wall-clock limit is enforced twice, through the job's active deadline and
// through the wait below, so a wedged pod still produces a timed out outcome.
func (s *K8sSandbox) Run(ctx context.Context, spec *abstractions.SandboxSpec) (*abstractions.SandboxOutcome, error) {
	job, err := buildJob(s.namespace, spec, s.cpuLimit, s.memoryLimit)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", spec.RunID, err)
	}

	s.logger.Info("Creating sandbox job",
		"run_id", spec.RunID, "job_name", job.Name, "namespace", s.namespace,
		"image", spec.ImageRef, "timeout", spec.Timeout)

	createdJob, err := s.helper.CreateJob(ctx, s.namespace, job)
	if err != nil {
		return nil, fmt.Errorf("run %s: creating job: %w", spec.RunID, err)
	}

	start := time.Now()
	outcome, err := s.waitForCompletion(ctx, spec, createdJob.Name, start)

	s.deleteJob(createdJob.Name)

	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *K8sSandbox) waitForCompletion(ctx context.Context, spec *abstractions.SandboxSpec, jobName string, start time.Time) (*abstractions.SandboxOutcome, error) {
	deadline := time.Time{}
	if spec.Timeout > 0 {
		deadline = start.Add(spec.Timeout)
	}

	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := s.helper.GetJob(ctx, s.namespace, jobName)
		if err != nil {
			return nil, fmt.Errorf("run %s: polling job: %w", spec.RunID, err)
		}

		if job.Status.Succeeded > 0 {
			return &abstractions.SandboxOutcome{
				ExitCode: 0,
				Duration: time.Since(start),
			}, nil
		}
		if job.Status.Failed > 0 {
			if jobDeadlineExceeded(job.Status.Conditions) {
				return s.timedOutOutcome(time.Since(start)), nil
			}
			exitCode, err := s.podExitCode(ctx, jobName)
			if err != nil {
				s.logger.Warn("Could not read pod exit code", "run_id", spec.RunID, "error", err)
				exitCode = 1
			}
			return &abstractions.SandboxOutcome{
				ExitCode: exitCode,
				Duration: time.Since(start),
			}, nil
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return s.timedOutOutcome(time.Since(start)), nil
		}
	}
}

func jobDeadlineExceeded(conditions []batchv1.JobCondition) bool {
	for _, condition := range conditions {
		if condition.Type == batchv1.JobFailed && condition.Reason == "DeadlineExceeded" {
			return true
		}
	}
	return false
}

func (s *K8sSandbox) timedOutOutcome(duration time.Duration) *abstractions.SandboxOutcome {
	return &abstractions.SandboxOutcome{
		ExitCode: -1,
		Duration: duration,
		TimedOut: true,
	}
}

// podExitCode reads the artifact container's exit code from the job's pod.
func (s *K8sSandbox) podExitCode(ctx context.Context, jobName string) (int, error) {
	pods, err := s.helper.GetJobPods(ctx, s.namespace, jobName)
	if err != nil {
		return 0, err
	}
	for _, pod := range pods.Items {
		for _, status := range pod.Status.ContainerStatuses {
			if status.Name != artifactContainerName {
				continue
			}
			if status.State.Terminated != nil {
				return int(status.State.Terminated.ExitCode), nil
			}
		}
	}
	return 0, fmt.Errorf("no terminated container status for job %s", jobName)
}

func (s *K8sSandbox) deleteJob(jobName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	propagationPolicy := metav1.DeletePropagationBackground
	deleteOptions := metav1.DeleteOptions{PropagationPolicy: &propagationPolicy}
	if err := s.helper.DeleteJob(ctx, s.namespace, jobName, deleteOptions); err != nil && !apierrors.IsNotFound(err) {
		s.logger.Warn("Failed to delete sandbox job", "job_name", jobName, "error", err)
	}
}
