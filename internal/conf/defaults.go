// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers defaults for every key so that partial config
// files and env-only setups still produce complete settings.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("api.baseurl", "http://localhost:5000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.uid", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.tokenfile", "")
	v.SetDefault("api.memberscachettl", 5*time.Minute)
	v.SetDefault("api.useragent", "fieldmap")

	v.SetDefault("display.timezone", "America/Los_Angeles")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/fieldmap.log")
	v.SetDefault("logging.file_output.level", "debug")
	v.SetDefault("logging.file_output.max_size", 50)
	v.SetDefault("logging.file_output.max_age", 30)
	v.SetDefault("logging.file_output.max_rotated_files", 5)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.listen", "127.0.0.1:8090")
	v.SetDefault("server.metrics", true)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", "fieldmap/records")
	v.SetDefault("mqtt.clientid", "fieldmap")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.passwordfile", "")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
}
