package config

// ServiceConfig holds the service identity and runtime settings from the
// `service` section of config.yaml. Version/build fields are reported by
// the health endpoint; the ready and termination files are written for the
// container runtime.
type ServiceConfig struct {
	Version         string `mapstructure:"version,omitempty"`
	Build           string `mapstructure:"build,omitempty"`
	BuildDate       string `mapstructure:"build_date,omitempty"`
	Port            int    `mapstructure:"port,omitempty"`
	ReadyFile       string `mapstructure:"ready_file"`
	TerminationFile string `mapstructure:"termination_file"`
	LocalMode       bool   `mapstructure:"local_mode,omitempty"`
}
