// Package config loads the Jira connection settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andywolf/jiracomments/internal/cloud/gcp"
	"github.com/spf13/viper"
)

// Auth modes accepted in auth_mode.
const (
	AuthBasic = "basic"
	AuthJWT   = "jwt"
)

// ErrMissingConfig is returned by Validate when a required value is absent.
var ErrMissingConfig = errors.New("missing required jira configuration")

// EnvironmentHint lists the environment this module reads (* - required).
const EnvironmentHint = "[jira_protocol, jira_port, jira_apiVers, *jira_host, *jira_user, *jira_password]"

// Config represents the Jira connection configuration
type Config struct {
	Protocol       string `mapstructure:"protocol"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	PasswordSecret string `mapstructure:"password_secret"` // Secret Manager reference for Password
	APIVersion     string `mapstructure:"api_version"`
	AuthMode       string `mapstructure:"auth_mode"`
	JWTIssuer      string `mapstructure:"jwt_issuer"` // Atlassian Connect app key
	JWTSecret      string `mapstructure:"jwt_secret"` // Atlassian Connect shared secret
	Timeout        string `mapstructure:"timeout"`
	Insecure       bool   `mapstructure:"insecure"` // skip TLS verification
	RateLimit      int    `mapstructure:"rate_limit"` // requests per second, 0 for no limit
}

// envBindings maps config keys to the environment variables read for them.
// The lower-case names are the ones the workflow runtime exports.
var envBindings = map[string][]string{
	"protocol":        {"JIRA_PROTOCOL", "jira_protocol"},
	"host":            {"JIRA_HOST", "jira_host"},
	"port":            {"JIRA_PORT", "jira_port"},
	"user":            {"JIRA_USER", "jira_user"},
	"password":        {"JIRA_PASSWORD", "jira_password"},
	"password_secret": {"JIRA_PASSWORD_SECRET"},
	"api_version":     {"JIRA_API_VERSION", "jira_apiVers"},
	"auth_mode":       {"JIRA_AUTH_MODE"},
	"jwt_issuer":      {"JIRA_JWT_ISSUER"},
	"jwt_secret":      {"JIRA_JWT_SECRET"},
	"timeout":         {"JIRA_TIMEOUT"},
	"insecure":        {"JIRA_INSECURE"},
	"rate_limit":      {"JIRA_RATE_LIMIT"},
}

// BindEnv registers the environment variables for every config key on v.
func BindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from v, which may carry a config file, bound
// flags and environment variables.
func Load(v *viper.Viper) (*Config, error) {
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Protocol == "" {
		cfg.Protocol = "https"
	}

	if cfg.Port == 0 {
		cfg.Port = 443
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = "2"
	}

	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthBasic
	}

	if cfg.Timeout == "" {
		cfg.Timeout = "30s"
	}
}

// Validate checks that every required value is present. It never performs
// network calls, so it is safe to run before anything is fetched.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}

	switch c.AuthMode {
	case AuthBasic, "":
		if c.User == "" {
			missing = append(missing, "user")
		}
		if c.Password == "" && c.PasswordSecret == "" {
			missing = append(missing, "password")
		}
	case AuthJWT:
		if c.JWTIssuer == "" {
			missing = append(missing, "jwt_issuer")
		}
		if c.JWTSecret == "" {
			missing = append(missing, "jwt_secret")
		}
	default:
		return fmt.Errorf("invalid auth_mode: %s (must be basic or jwt)", c.AuthMode)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (environment %s, * - required)", ErrMissingConfig, strings.Join(missing, ", "), EnvironmentHint)
	}

	if c.Protocol != "http" && c.Protocol != "https" {
		return fmt.Errorf("invalid protocol: %s (must be http or https)", c.Protocol)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit: %d", c.RateLimit)
	}

	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}

	return nil
}

// RequestTimeout returns the parsed timeout, or zero when unset.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ResolvePassword fills Password from PasswordSecret when no literal
// password was configured.
func (c *Config) ResolvePassword(ctx context.Context, fetcher gcp.SecretFetcher) error {
	if c.Password != "" || c.PasswordSecret == "" {
		return nil
	}
	if fetcher == nil {
		return fmt.Errorf("password_secret is set but no secret fetcher is available")
	}

	password, err := fetcher.FetchSecret(ctx, c.PasswordSecret)
	if err != nil {
		return fmt.Errorf("failed to fetch jira password: %w", err)
	}
	c.Password = strings.TrimSpace(password)

	return nil
}
