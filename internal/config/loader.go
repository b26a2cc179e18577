package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Service    *ServiceConfig    `mapstructure:"service"`
	Database   *map[string]any   `mapstructure:"database"`
	Tournament *TournamentConfig `mapstructure:"tournament"`
	Sandbox    *SandboxConfig    `mapstructure:"sandbox"`
	Datasets   *DatasetsConfig   `mapstructure:"datasets"`
	Scheduler  *SchedulerConfig  `mapstructure:"scheduler"`
	Baselines  *BaselinesConfig  `mapstructure:"baselines"`
}

type EnvMap struct {
	EnvMappings map[string]string `mapstructure:"env_mappings,omitempty"`
}

type SecretMap struct {
	Dir      string            `mapstructure:"dir,omitempty"`
	Mappings map[string]string `mapstructure:"mappings,omitempty"`
}

// localMode is registered once at package level so that repeated LoadConfig
// calls (as happens in tests) do not redefine the flag.
var localMode = flag.Bool("local", false, "Server operates in local mode or not.")

// readConfig locates and reads a configuration file using Viper. It searches for
// a file named "{name}.{ext}" in each of the given directories in order; the first
// found file is read. The returned Viper instance contains the parsed config and
// can be used for further unmarshaling or env binding.
func readConfig(logger *slog.Logger, name string, ext string, dirs ...string) (*viper.Viper, error) {
	logger.Info("Reading the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs))

	configValues := viper.New()

	configValues.SetConfigName(name) // name of config file (without extension)
	configValues.SetConfigType(ext)  // REQUIRED if the config file does not have the extension in the name
	for _, dir := range dirs {
		configValues.AddConfigPath(dir)
	}
	err := configValues.ReadInConfig() // Find and read the config file

	if err != nil {
		logger.Error("Failed to read the configuration file", "file", fmt.Sprintf("%s.%s", name, ext), "dirs", fmt.Sprintf("%v", dirs), "error", err.Error())
	} else {
		logger.Info("Read the configuration file", "file", configValues.ConfigFileUsed())
	}

	return configValues, err
}

// LoadConfig loads configuration using a two-tier system with Viper.
//
// Configuration loading order (later sources override earlier ones):
//  1. config.yaml (config/config.yaml) - Configuration loaded first
//  2. Secrets from files - Mapped via secrets.mappings with secrets.dir
//  3. Environment variables - Mapped via env.mappings configuration
//
// Configuration supports:
//   - Environment variable mapping: Define in env.mappings (e.g., PORT → service.port)
//   - Secrets from files: Define in secrets.mappings with secrets.dir (e.g., /tmp/db_password → database.password)
//   - Optional secrets: Append :optional to the secret file name to mark it as optional.
//     If an optional secret file doesn't exist, no error is logged and the configuration
//     continues loading without that secret value.
func LoadConfig(logger *slog.Logger, version string, build string, buildDate string, dirs ...string) (*Config, error) {
	if len(dirs) == 0 {
		dirs = []string{"config", "./config", "../../config"}
	}
	configValues, err := readConfig(logger, "config", "yaml", dirs...)
	if err != nil {
		return nil, err
	}

	// set up the secrets from the secrets directory
	secrets := SecretMap{}
	if err := configValues.UnmarshalKey("secrets", &secrets); err != nil {
		return nil, err
	}
	if secrets.Dir != "" {
		// check that the secrets directory exists
		if _, err := os.Stat(secrets.Dir); !os.IsNotExist(err) {
			for fileName, fieldName := range secrets.Mappings {
				// the secret file name can be optional by appending :optional to the file name
				optional := strings.HasSuffix(fileName, ":optional")
				if optional {
					fileName = strings.TrimSuffix(fileName, ":optional")
				}
				secret, err := getSecret(secrets.Dir, fileName, optional)
				if err != nil {
					// log the error and fail the startup (by returning the error)
					logger.Error("Failed to read secret file", "file", fmt.Sprintf("%s/%s", secrets.Dir, fileName), "error", err.Error())
					return nil, err
				}
				if secret != "" {
					configValues.Set(fieldName, secret)
				}
			}
		}
	}

	// set up the environment variable mappings
	envMappings := EnvMap{}
	if err := configValues.UnmarshalKey("env", &envMappings); err != nil {
		return nil, err
	}
	for envName, field := range envMappings.EnvMappings {
		configValues.BindEnv(field, strings.ToUpper(envName))
		logger.Info("Mapped environment variable", "field_name", field, "env_name", envName)
	}

	flag.Parse()

	conf := Config{}
	if err := configValues.Unmarshal(&conf); err != nil {
		return nil, err
	}
	if conf.Service == nil {
		conf.Service = &ServiceConfig{}
	}

	// set the version, build, and build date
	conf.Service.Version = version
	conf.Service.Build = build
	conf.Service.BuildDate = buildDate
	conf.Service.LocalMode = *localMode
	return &conf, nil
}

// getSecret reads a secret from a file and returns the value as a string.
// If the file does not exist and optional is true, it silently returns an
// empty string; otherwise the read error is returned.
func getSecret(secretsDir string, secretName string, optional bool) (string, error) {
	// this is the full name of the secrets file to read
	secret, err := os.ReadFile(fmt.Sprintf("%s/%s", secretsDir, secretName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && optional {
			return "", nil
		}
		return "", err
	}
	return string(secret), nil
}
