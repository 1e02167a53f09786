package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Session backends.
const (
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Signer modes.
const (
	SignerModeLocal  = "local"
	SignerModeRemote = "remote"
)

type Config struct {
	Env                  string        `mapstructure:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        `mapstructure:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `mapstructure:"log_format"`            // Log format (json, text) (default: json)
	Port                 int           `mapstructure:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `mapstructure:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `mapstructure:"housekeeping_interval"` // Expired session purge interval (default: 1h)

	LedgerDatabaseFile string        `mapstructure:"ledger_database_file"` // SQLite file backing the simulated ledger (default: ./delegate.db)
	LedgerBlockTime    time.Duration `mapstructure:"ledger_block_time"`    // Block interval; 0 mines on demand (default: 0)
	LedgerTxTimeout    time.Duration `mapstructure:"ledger_tx_timeout"`    // Max wait for a write to become final (default: 2m)

	SessionBackend   string `mapstructure:"session_backend"`    // sqlite, redis or memory (default: sqlite)
	RedisAddr        string `mapstructure:"redis_addr"`         // Redis address when SessionBackend is redis
	SessionKeyPrefix string `mapstructure:"session_key_prefix"` // Redis key prefix (default: delegate:)

	SignerMode     string `mapstructure:"signer_mode"`     // local or remote (default: local)
	SignerKeyFile  string `mapstructure:"signer_key_file"` // PKCS8 PEM key for the local signer
	SignerMnemonic string `mapstructure:"signer_mnemonic"` // BIP-39 mnemonic for the local signer
	SignerURL      string `mapstructure:"signer_url"`      // Base URL of the remote key service
	SignerKeyID    string `mapstructure:"signer_key_id"`   // Key id at the remote key service

	CredentialAudience string `mapstructure:"credential_audience"` // Audience write credentials must carry (default: delegate)
	ConsentBaseURL     string `mapstructure:"consent_base_url"`    // Base URL of the consent pages (default: https://demo.vincent.com)
}

var defaults = map[string]any{
	"env":                   "dev",
	"log_level":             "info",
	"log_format":            "json",
	"port":                  8080,
	"shutdown_grace_period": 10 * time.Second,
	"housekeeping_interval": time.Hour,
	"ledger_database_file":  "delegate.db",
	"ledger_block_time":     time.Duration(0),
	"ledger_tx_timeout":     2 * time.Minute,
	"session_backend":       SessionBackendSQLite,
	"redis_addr":            "localhost:6379",
	"session_key_prefix":    "delegate:",
	"signer_mode":           SignerModeLocal,
	"signer_key_file":       "",
	"signer_mnemonic":       "",
	"signer_url":            "",
	"signer_key_id":         "",
	"credential_audience":   "delegate",
	"consent_base_url":      consent.DefaultBaseURL,
}

// RegisterFlags adds the command line overrides LoadConfig understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a delegate.yaml config file")
	fs.Int("port", 8080, "HTTP server port")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("ledger-database-file", "delegate.db", "SQLite file backing the simulated ledger")
	fs.String("session-backend", SessionBackendSQLite, "session store (sqlite, redis, memory)")
	fs.String("signer-mode", SignerModeLocal, "signing key source (local, remote)")
}

// LoadConfig resolves configuration from defaults, an optional delegate.yaml
// (current directory or --config), environment variables and flags, in
// increasing precedence. Flags are only applied when explicitly set.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("delegate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if flags != nil {
		flags.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.SessionBackend {
	case SessionBackendSQLite, SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session_backend %q", c.SessionBackend))
	}
	switch c.SignerMode {
	case SignerModeLocal:
		if c.SignerKeyFile != "" && c.SignerMnemonic != "" {
			errs = append(errs, errors.New("signer_key_file and signer_mnemonic are mutually exclusive"))
		}
	case SignerModeRemote:
		if c.SignerURL == "" || c.SignerKeyID == "" {
			errs = append(errs, errors.New("signer_url and signer_key_id are required for the remote signer"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown signer_mode %q", c.SignerMode))
	}
	if c.LedgerTxTimeout <= 0 {
		errs = append(errs, errors.New("ledger_tx_timeout must be positive"))
	}
	if c.CredentialAudience == "" {
		errs = append(errs, errors.New("credential_audience must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
