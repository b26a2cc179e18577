package k8s

// Contains the builder functions that construct Kubernetes objects
import (
	"fmt"
	"regexp"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/bench-arena/bench-arena/internal/abstractions"
)

const (
	maxK8sNameLength                = 63
	defaultJobTTLSeconds            = int32(3600)
	artifactContainerName           = "artifact"
	datasetVolumeName               = "dataset"
	outputVolumeName                = "output"
	datasetMountPath                = "/data"
	outputMountPath                 = "/output"
	jobPrefix                       = "bench-run-"
	envRunIDName                    = "RUN_ID"
	envDatabaseName                 = "DATABASE_NAME"
	envNetworkName                  = "NETWORK"
	envWindowDaysName               = "WINDOW_DAYS"
	defaultAllowPrivilegeEscalation = false
	defaultRunAsUser                = int64(1000)
	defaultRunAsGroup               = int64(1000)
	labelAppKey                     = "app"
	labelComponentKey               = "component"
	labelRunIDKey                   = "run_id"
	labelTournamentIDKey            = "tournament_id"
	labelHotkeyKey                  = "hotkey"
	labelAppValue                   = "bench-arena"
	labelComponentValue             = "tournament-run"
	capabilityDropAll               = "ALL"
)

var dnsLabelSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

func sanitizeDNS1123Label(value string) string {
	safe := strings.ToLower(value)
	safe = dnsLabelSanitizer.ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, "-")
	if safe == "" {
		return "x"
	}
	return safe
}

func buildK8sName(runID string) string {
	name := jobPrefix + sanitizeDNS1123Label(runID)
	if len(name) > maxK8sNameLength {
		name = strings.Trim(name[:maxK8sNameLength], "-")
	}
	return name
}

func jobName(runID string) string {
	return buildK8sName(runID)
}

func buildJob(namespace string, spec *abstractions.SandboxSpec, cpuLimit string, memoryLimit string) (*batchv1.Job, error) {
	if spec.ImageRef == "" {
		return nil, fmt.Errorf("artifact image is required")
	}
	labels := jobLabels(spec)
	name := jobName(spec.RunID)

	ttl := defaultJobTTLSeconds
	// runs are never retried; a failed run is a scored outcome
	backoff := int32(0)

	envVars := buildEnvVars(spec)
	resources, err := buildResources(cpuLimit, memoryLimit)
	if err != nil {
		return nil, err
	}

	deadline := int64(spec.Timeout.Seconds())

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            &backoff,
			TTLSecondsAfterFinished: &ttl,
			ActiveDeadlineSeconds:   &deadline,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:            artifactContainerName,
							Image:           spec.ImageRef,
							ImagePullPolicy: corev1.PullIfNotPresent,
							Env:             envVars,
							Resources:       resources,
							SecurityContext: defaultSecurityContext(),
							VolumeMounts: []corev1.VolumeMount{
								{
									Name:      datasetVolumeName,
									MountPath: datasetMountPath,
									ReadOnly:  true,
								},
								{
									Name:      outputVolumeName,
									MountPath: outputMountPath,
								},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: datasetVolumeName,
							VolumeSource: corev1.VolumeSource{
								HostPath: &corev1.HostPathVolumeSource{
									Path: spec.DatasetPath,
								},
							},
						},
						{
							Name: outputVolumeName,
							VolumeSource: corev1.VolumeSource{
								HostPath: &corev1.HostPathVolumeSource{
									Path: spec.OutputPath,
								},
							},
						},
					},
				},
			},
		},
	}, nil
}

func defaultSecurityContext() *corev1.SecurityContext {
	return &corev1.SecurityContext{
		AllowPrivilegeEscalation: boolPtr(defaultAllowPrivilegeEscalation),
		RunAsNonRoot:             boolPtr(true),
		RunAsUser:                int64Ptr(defaultRunAsUser),
		RunAsGroup:               int64Ptr(defaultRunAsGroup),
		Capabilities: &corev1.Capabilities{
			Drop: []corev1.Capability{
				capabilityDropAll,
			},
		},
		SeccompProfile: &corev1.SeccompProfile{
			Type: corev1.SeccompProfileTypeRuntimeDefault,
		},
	}
}

func boolPtr(value bool) *bool {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func buildEnvVars(spec *abstractions.SandboxSpec) []corev1.EnvVar {
	env := []corev1.EnvVar{
		{Name: envRunIDName, Value: spec.RunID},
		{Name: envDatabaseName, Value: spec.DatabaseName},
		{Name: envNetworkName, Value: spec.Network},
		{Name: envWindowDaysName, Value: fmt.Sprintf("%d", spec.WindowDays)},
	}
	seen := map[string]bool{
		envRunIDName:      true,
		envDatabaseName:   true,
		envNetworkName:    true,
		envWindowDaysName: true,
	}
	for _, item := range spec.Env {
		if item.Name == "" || seen[item.Name] {
			continue
		}
		seen[item.Name] = true
		env = append(env, corev1.EnvVar{
			Name:  item.Name,
			Value: item.Value,
		})
	}
	return env
}

func buildResources(cpuLimit string, memoryLimit string) (corev1.ResourceRequirements, error) {
	resources := corev1.ResourceRequirements{
		Limits: corev1.ResourceList{},
	}
	if cpuLimit != "" {
		quantity, err := resource.ParseQuantity(cpuLimit)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("parse cpu limit: %w", err)
		}
		resources.Limits[corev1.ResourceCPU] = quantity
	}
	if memoryLimit != "" {
		quantity, err := resource.ParseQuantity(memoryLimit)
		if err != nil {
			return corev1.ResourceRequirements{}, fmt.Errorf("parse memory limit: %w", err)
		}
		resources.Limits[corev1.ResourceMemory] = quantity
	}
	if len(resources.Limits) == 0 {
		resources.Limits = nil
	}
	return resources, nil
}

func jobLabels(spec *abstractions.SandboxSpec) map[string]string {
	return map[string]string{
		labelAppKey:          labelAppValue,
		labelComponentKey:    labelComponentValue,
		labelRunIDKey:        sanitizeDNS1123Label(spec.RunID),
		labelTournamentIDKey: sanitizeDNS1123Label(spec.TournamentID),
		labelHotkeyKey:       sanitizeDNS1123Label(spec.Hotkey),
	}
}
