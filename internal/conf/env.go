// env.go - environment variable configuration for fieldmap
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FIELDMAP"

type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "FIELDMAP_DEBUG", validateEnvBool},
		{"api.baseurl", "FIELDMAP_API_BASEURL", validateEnvURL},
		{"api.timeout", "FIELDMAP_API_TIMEOUT", validateEnvDuration},
		{"api.uid", "FIELDMAP_API_UID", nil},
		{"api.token", "FIELDMAP_API_TOKEN", nil},
		{"api.tokenfile", "FIELDMAP_API_TOKENFILE", nil},
		{"api.memberscachettl", "FIELDMAP_API_MEMBERSCACHETTL", validateEnvDuration},
		{"display.timezone", "FIELDMAP_DISPLAY_TIMEZONE", validateEnvTimezone},
		{"server.listen", "FIELDMAP_SERVER_LISTEN", nil},
		{"mqtt.enabled", "FIELDMAP_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "FIELDMAP_MQTT_BROKER", validateEnvURL},
		{"mqtt.username", "FIELDMAP_MQTT_USERNAME", nil},
		{"mqtt.password", "FIELDMAP_MQTT_PASSWORD", nil},
		{"mqtt.passwordfile", "FIELDMAP_MQTT_PASSWORDFILE", nil},
		{"sentry.enabled", "FIELDMAP_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "FIELDMAP_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds the FIELDMAP_* variables. Invalid values are reported
// but still bound; ValidateSettings rejects them later with context.
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var warnings []string
	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		if value := os.Getenv(binding.EnvVar); value != "" {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s: %v", binding.EnvVar, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	_, err := strconv.ParseBool(value)
	return err
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", value)
	}
	return nil
}

func validateEnvTimezone(value string) error {
	_, err := time.LoadLocation(value)
	return err
}
