package config

import (
	"fmt"
	"strings"
)

const minProductionSecretLength = 32

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	Required         []string
	RequiredPostgres []string
}

var (
	postgresKeys = []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_NAME"}

	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {
			Required:         []string{"SERVER_PORT", "JWT_SECRET"},
			RequiredPostgres: postgresKeys,
		},
		Test: {
			Required: []string{"JWT_SECRET"},
		},
		CI: {
			Required:         []string{"SERVER_PORT", "JWT_SECRET"},
			RequiredPostgres: append([]string{"DB_PASSWORD"}, postgresKeys...),
		},
		Production: {
			Required:         []string{"SERVER_HOST", "SERVER_PORT", "JWT_SECRET", "REDIS_URL"},
			RequiredPostgres: append([]string{"DB_PASSWORD", "DB_SSL_MODE"}, postgresKeys...),
		},
	}

	validLogLevels = map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
)

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	reqs := requirements[cfg.Environment]
	var problems []ValidationError

	required := reqs.Required
	if cfg.DBDriver == "postgres" {
		required = append(append([]string{}, required...), reqs.RequiredPostgres...)
	}
	for _, key := range required {
		if cfg.value(key) == "" {
			problems = append(problems, ValidationError{Field: key, Message: "is required"})
		}
	}

	switch cfg.DBDriver {
	case "postgres":
	case "sqlite":
		if cfg.SQLitePath == "" {
			problems = append(problems, ValidationError{Field: "SQLITE_PATH", Message: "is required for the sqlite driver"})
		}
		if cfg.Environment.IsProduction() {
			problems = append(problems, ValidationError{Field: "DB_DRIVER", Message: "sqlite is not supported in production"})
		}
	default:
		problems = append(problems, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.TokenTTL <= 0 {
		problems = append(problems, ValidationError{Field: "TOKEN_TTL", Message: "must be positive"})
	}
	if cfg.RecipeRateLimit < 0 {
		problems = append(problems, ValidationError{Field: "RECIPE_RATE_LIMIT", Message: "must not be negative"})
	}
	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		problems = append(problems, ValidationError{Field: "LOG_LEVEL", Message: fmt.Sprintf("unknown level %q", cfg.LogLevel)})
	}
	if cfg.Environment.IsProduction() && cfg.JWTSecret != "" && len(cfg.JWTSecret) < minProductionSecretLength {
		problems = append(problems, ValidationError{
			Field:   "JWT_SECRET",
			Message: fmt.Sprintf("must be at least %d characters in production", minProductionSecretLength),
		})
	}

	if len(problems) > 0 {
		lines := make([]string, len(problems))
		for i, p := range problems {
			lines[i] = p.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}
	return nil
}

// value returns the string form of a configuration key
func (c *Config) value(key string) string {
	switch key {
	case "SERVER_HOST":
		return c.ServerHost
	case "SERVER_PORT":
		return c.ServerPort
	case "DB_HOST":
		return c.DBHost
	case "DB_PORT":
		return c.DBPort
	case "DB_USER":
		return c.DBUser
	case "DB_PASSWORD":
		return c.DBPassword
	case "DB_NAME":
		return c.DBName
	case "DB_SSL_MODE":
		return c.DBSSLMode
	case "REDIS_URL":
		return c.RedisURL
	case "JWT_SECRET":
		return c.JWTSecret
	default:
		return ""
	}
}
