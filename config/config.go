package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database DatabaseConfigs `toml:"database"`
	Auth     AuthConfigs     `toml:"auth"`
}

type DatabaseConfigs struct {
	// Driver is either "postgres" or "sqlite".
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`

	// DSN takes precedence over the fields above when it is set.
	DSN string `toml:"dsn"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}

	if d.Driver == "sqlite" {
		return d.Database
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Database,
		sslMode,
	)
}

type AuthConfigs struct {
	AccessToken  TokenConfigs `toml:"access_token"`
	RefreshToken TokenConfigs `toml:"refresh_token"`

	Discord OAuth2Config `toml:"discord"`
	OIDC    OAuth2Config `toml:"oidc"`
}

type TokenConfigs struct {
	Secret     string   `toml:"secret"`
	Expiration Duration `toml:"expiration"`
}

type OAuth2Config struct {
	Name         string   `toml:"name"`
	Issuer       string   `toml:"issuer"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
}

func (c OAuth2Config) Enabled() bool {
	return c.Name != "" && c.ClientID != ""
}

// Duration lets TOML files write expirations as "15m" or "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Driver:   "sqlite",
			Database: "remindx.db",
		},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{
				Expiration: Duration{15 * time.Minute},
			},
			RefreshToken: TokenConfigs{
				Expiration: Duration{7 * 24 * time.Hour},
			},
			Discord: OAuth2Config{
				Name:   "discord",
				Scopes: []string{"identify", "email"},
			},
			OIDC: OAuth2Config{
				Scopes: []string{"openid", "profile", "email"},
			},
		},
	}
}

// Load reads the TOML file at path on top of Default. An empty path returns the defaults.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Configs{}, err
	}

	if _, err := toml.Decode(string(b), &cfg); err != nil {
		return Configs{}, fmt.Errorf("cannot decode %s: %w", path, err)
	}

	return cfg, nil
}

func (c Configs) Validate() error {
	if c.Auth.AccessToken.Secret == "" {
		return errors.New("auth.access_token secret is required")
	}

	if c.Auth.RefreshToken.Secret == "" {
		return errors.New("auth.refresh_token secret is required")
	}

	if c.Auth.AccessToken.Secret == c.Auth.RefreshToken.Secret {
		return errors.New("access and refresh tokens must use distinct secrets")
	}

	if c.Auth.AccessToken.Expiration.Duration <= 0 || c.Auth.RefreshToken.Expiration.Duration <= 0 {
		return errors.New("token expirations must be positive")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	return nil
}
