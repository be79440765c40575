// validate.go contains functions for validating settings
package conf

import (
	"fmt"
	"net/url"
	"time"

	"github.com/afcommunity/fieldmap/internal/errors"
)

// ValidationError collects every problem found in one pass
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings checks settings for values the application cannot run with
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAPISettings(&settings.API); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if _, err := time.LoadLocation(settings.Display.Timezone); err != nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("display timezone %q: %v", settings.Display.Timezone, err))
	}

	if settings.Server.Enabled && settings.Server.Listen == "" {
		ve.Errors = append(ve.Errors, "server listen address is required when the server is enabled")
	}

	if settings.MQTT.Enabled {
		if settings.MQTT.Broker == "" {
			ve.Errors = append(ve.Errors, "mqtt broker is required when mqtt is enabled")
		}
		if settings.MQTT.Topic == "" {
			ve.Errors = append(ve.Errors, "mqtt topic is required when mqtt is enabled")
		}
		if settings.MQTT.QoS > 2 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("mqtt qos must be 0, 1 or 2, got %d", settings.MQTT.QoS))
		}
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return errors.New(ve).
			Category(errors.CategoryConfiguration).
			Context("validation_errors", len(ve.Errors)).
			Build()
	}
	return nil
}

func validateAPISettings(api *APISettings) error {
	u, err := url.Parse(api.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api baseurl %q must be an absolute http(s) URL", api.BaseURL)
	}
	if api.Timeout <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	if api.MembersCacheTTL < 0 {
		return fmt.Errorf("api memberscachettl must not be negative")
	}
	return nil
}
