package sandbox

import (
	"log/slog"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/sandbox/docker"
	"github.com/bench-arena/bench-arena/internal/sandbox/k8s"
)

// NewSandbox selects the sandbox substrate from the service configuration.
// Local mode always uses the docker substrate.
func NewSandbox(logger *slog.Logger, serviceConfig *config.Config) (abstractions.Sandbox, error) {

	var sb abstractions.Sandbox
	var err error

	substrate := ""
	if serviceConfig.Sandbox != nil {
		substrate = serviceConfig.Sandbox.Substrate
	}

	if serviceConfig.Service.LocalMode || substrate == "docker" {
		sb, err = docker.NewDockerSandbox(logger, serviceConfig.Sandbox)
	} else {
		sb, err = k8s.NewK8sSandbox(logger, serviceConfig.Sandbox)
	}

	return sb, err
}
