package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Sync        SyncConfig        `toml:"sync"`
	Accounts    []AccountConfig   `toml:"accounts"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Google GoogleConfig `toml:"google"`
}

// GoogleConfig contains the Google OAuth2 client credentials shared by all accounts.
//
// Tokens themselves are per account and live under [SyncConfig.TokenDir].
type GoogleConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map converts the credentials to the map form consumed by service constructors.
func (g GoogleConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     g.ClientID,
		"client_secret": g.ClientSecret,
		"redirect_uri":  g.RedirectURI,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SyncConfig contains scheduler, cache, and token storage settings.
type SyncConfig struct {
	BaseIntervalSeconds int     `toml:"base_interval_seconds"`
	MinIntervalSeconds  int     `toml:"min_interval_seconds"`
	MaxIntervalSeconds  int     `toml:"max_interval_seconds"`
	BackoffMultiplier   float64 `toml:"backoff_multiplier"`
	CacheTTLSeconds     int     `toml:"cache_ttl_seconds"`
	RequestsPerSecond   float64 `toml:"requests_per_second"`
	TokenDir            string  `toml:"token_dir"`
}

// BaseInterval returns the starting polling interval.
func (s SyncConfig) BaseInterval() time.Duration {
	return time.Duration(s.BaseIntervalSeconds) * time.Second
}

// MinInterval returns the lower bound for the polling interval.
func (s SyncConfig) MinInterval() time.Duration {
	return time.Duration(s.MinIntervalSeconds) * time.Second
}

// MaxInterval returns the upper bound for the polling interval.
func (s SyncConfig) MaxInterval() time.Duration {
	return time.Duration(s.MaxIntervalSeconds) * time.Second
}

// CacheTTL returns the remote snapshot cache lifetime.
func (s SyncConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// AccountConfig describes one Google account participating in sync.
type AccountConfig struct {
	Email     string   `toml:"email"`
	Lists     []string `toml:"lists"`
	ShareWith []string `toml:"share_with"`
}

// SyncPair is one (source account, target account, list name) reconciliation
// triple. Pairs are not persisted; they are derived from the config each cycle.
type SyncPair struct {
	SourceAccount string
	TargetAccount string
	ListName      string
}

func (p SyncPair) String() string {
	return fmt.Sprintf("%s -> %s [%s]", p.SourceAccount, p.TargetAccount, p.ListName)
}

// SyncPairs derives the pairwise sync topology from the account entries.
//
// Each of an account's lists is paired with every account in share_with,
// in config order. Self-pairs are skipped.
func (c *Config) SyncPairs() []SyncPair {
	var pairs []SyncPair
	for _, account := range c.Accounts {
		for _, listName := range account.Lists {
			for _, target := range account.ShareWith {
				if target == account.Email {
					continue
				}
				pairs = append(pairs, SyncPair{
					SourceAccount: account.Email,
					TargetAccount: target,
					ListName:      listName,
				})
			}
		}
	}
	return pairs
}

// Account looks up an account entry by email.
func (c *Config) Account(email string) (AccountConfig, bool) {
	for _, account := range c.Accounts {
		if account.Email == email {
			return account, true
		}
	}
	return AccountConfig{}, false
}

// TokenPath returns the token file path for the given account email.
func (c *Config) TokenPath(email string) string {
	return filepath.Join(c.Sync.TokenDir, email+".json")
}

// Validate checks invariants the scheduler depends on.
//
// Configuration errors are the only fatal startup errors.
func (c *Config) Validate() error {
	if c.Sync.BaseIntervalSeconds <= 0 {
		return fmt.Errorf("%w: base_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.Sync.MinIntervalSeconds <= 0 || c.Sync.MaxIntervalSeconds < c.Sync.MinIntervalSeconds {
		return fmt.Errorf("%w: interval bounds must satisfy 0 < min <= max", ErrInvalidConfig)
	}
	if c.Sync.BackoffMultiplier <= 1 {
		return fmt.Errorf("%w: backoff_multiplier must be greater than 1", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Accounts))
	for _, account := range c.Accounts {
		if account.Email == "" {
			return fmt.Errorf("%w: account email must not be empty", ErrInvalidConfig)
		}
		if seen[account.Email] {
			return fmt.Errorf("%w: duplicate account %s", ErrInvalidConfig, account.Email)
		}
		seen[account.Email] = true
	}
	for _, account := range c.Accounts {
		for _, target := range account.ShareWith {
			if !seen[target] {
				return fmt.Errorf("%w: %s shares with unknown account %s", ErrInvalidConfig, account.Email, target)
			}
		}
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
