// config.go: settings struct for fieldmap and the functions that load and save it.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/afcommunity/fieldmap/internal/errors"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// APISettings configures the collaborator API client
type APISettings struct {
	BaseURL         string        `yaml:"baseurl"`         // root of the collaborator API, e.g. https://api.example.org
	Timeout         time.Duration `yaml:"timeout"`         // per-request timeout when the caller sets no deadline
	UID             string        `yaml:"uid"`             // identity of the signed-in user
	Token           string        `yaml:"token"`           // bearer token issued by the identity provider, ${VAR} is expanded
	TokenFile       string        `yaml:"tokenfile"`       // mounted secret holding the token, wins over token
	MembersCacheTTL time.Duration `yaml:"memberscachettl"` // how long community member lists are reused
	UserAgent       string        `yaml:"useragent"`
}

// DisplaySettings controls how dates and times are rendered
type DisplaySettings struct {
	Timezone string `yaml:"timezone"` // IANA name, record dates are shown in this zone
}

// ServerSettings configures the local JSON API
type ServerSettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"` // host:port
	Metrics bool   `yaml:"metrics"` // expose /metrics
}

// MQTTSettings configures publication of record-created events
type MQTTSettings struct {
	Enabled      bool   `yaml:"enabled"`
	Broker       string `yaml:"broker"` // tcp://host:1883
	Topic        string `yaml:"topic"`  // prefix, the record kind is appended
	ClientID     string `yaml:"clientid"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"` // ${VAR} is expanded
	PasswordFile string `yaml:"passwordfile"`
	QoS          byte   `yaml:"qos"`
	Retain       bool   `yaml:"retain"`
}

// SentrySettings enables optional error telemetry
type SentrySettings struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Settings is the root of the configuration tree
type Settings struct {
	Debug   bool                 `yaml:"debug"`
	API     APISettings          `yaml:"api"`
	Display DisplaySettings      `yaml:"display"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Server  ServerSettings       `yaml:"server"`
	MQTT    MQTTSettings         `yaml:"mqtt"`
	Sentry  SentrySettings       `yaml:"sentry"`

	configFile string
}

// ConfigFile returns the path the settings were read from, empty when the
// embedded defaults were used.
func (s *Settings) ConfigFile() string {
	return s.configFile
}

// Location returns the display time zone, UTC if it cannot be loaded.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configFile (or the first config.yaml on the search path, or the
// embedded defaults) plus FIELDMAP_* environment variables, validates the
// result and installs it as the current settings.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	usedFile, err := readConfig(v, configFile)
	if err != nil {
		return nil, err
	}

	settings := &Settings{configFile: usedFile}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// resolveSecrets replaces credential settings with their file or
// environment values.
func resolveSecrets(s *Settings) error {
	token, err := secrets.Resolve(s.API.TokenFile, s.API.Token)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("setting", "api.token").
			Build()
	}
	s.API.Token = token

	password, err := secrets.Resolve(s.MQTT.PasswordFile, s.MQTT.Password)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("setting", "mqtt.password").
			Build()
	}
	s.MQTT.Password = password
	return nil
}

func readConfig(v *viper.Viper, configFile string) (string, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return "", errors.New(err).
				Category(errors.CategoryFileParsing).
				Context("operation", "read_config").
				Context("path", configFile).
				Build()
		}
		return configFile, nil
	}

	v.SetConfigName("config")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	err := v.ReadInConfig()
	if err == nil {
		return v.ConfigFileUsed(), nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return "", errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "read_config").
			Build()
	}

	// No file on the search path: fall back to the embedded defaults.
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML())); err != nil {
		return "", errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "read_embedded_config").
			Build()
	}
	return "", nil
}

// DefaultConfigYAML returns the embedded default config.yaml
func DefaultConfigYAML() []byte {
	data, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		// The file is embedded at build time.
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// GetDefaultConfigPaths lists the directories searched for config.yaml
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "windows":
			paths = append(paths, filepath.Join(home, "AppData", "Roaming", "fieldmap"))
		default:
			paths = append(paths, filepath.Join(home, ".config", "fieldmap"))
		}
	}
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/fieldmap")
	}
	return paths
}

// GetSettings returns the settings installed by the last successful Load
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath atomically. Comments and
// ordering of the original file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
