package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teal-fm/melody/logging"
)

// Load initializes the configuration with viper
func Load() error {
	logger := logging.New("config")

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using defaults and environment variables")
	}

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.root_url", "http://localhost:8080")
	viper.SetDefault("db.path", "./data/melody.db")

	// catalog API
	viper.SetDefault("saavn.base_url", "https://www.jiosaavn.com/api.php")
	viper.SetDefault("saavn.timeout", 15*time.Second)
	viper.SetDefault("saavn.user_agent", "")
	viper.SetDefault("saavn.rate_per_second", 10)
	viper.SetDefault("saavn.breaker_timeout", 30*time.Second)

	// ID token verification
	viper.SetDefault("auth.project_id", "")
	viper.SetDefault("auth.jwks_url", "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com")
	viper.SetDefault("auth.issuer_prefix", "https://securetoken.google.com/")

	viper.SetDefault("cors.allowed_origins", []string{"*"})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	viper.SetDefault("recommend.default_limit", 20)
	viper.SetDefault("recommend.max_limit", 50)

	viper.AutomaticEnv()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		logger.Info().Msg("config file not found, using default values and environment variables")
	} else {
		logger.Info().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}

	// nothing is strictly required; features without their settings are disabled
	if viper.GetString("auth.project_id") == "" {
		logger.Warn().Msg("auth.project_id not set, user routes are disabled")
	}

	return nil
}

// AuthEnabled reports whether ID token verification is configured.
func AuthEnabled() bool {
	return viper.GetString("auth.project_id") != ""
}

// AllowedOrigins returns the CORS origins, accepting a comma-separated env value.
func AllowedOrigins() []string {
	origins := viper.GetStringSlice("cors.allowed_origins")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
