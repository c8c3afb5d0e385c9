package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/exchange"
	"github.com/tokensquare/guardian/internal/idp/lockout"
	"github.com/tokensquare/guardian/internal/idp/passwords"
	"github.com/tokensquare/guardian/internal/idp/providers/accesstoken"
	"github.com/tokensquare/guardian/internal/idp/providers/apikeys"
	"github.com/tokensquare/guardian/internal/idp/providers/ldap"
	"github.com/tokensquare/guardian/internal/idp/providers/oauth"
	"github.com/tokensquare/guardian/internal/idp/providers/otp"
	"github.com/tokensquare/guardian/internal/idp/providers/passwordless"
	"github.com/tokensquare/guardian/internal/idp/providers/sessions"
)

// Config is the whole process configuration, one section per concern. Values
// come from the environment, optionally seeded from a .env file.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseFile         string        `env:"DATABASE_FILE" envDefault:"guardian.db"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"10m"`

	// Allowed exchange transitions as "from:to" entries. Every entry must
	// have a registered implementation or startup fails.
	ExchangeAllowed []string `env:"EXCHANGE_ALLOWED" envSeparator:"," envDefault:"basic:session,basic:otp,otp:session,passwordless:session,session:accessToken"`

	Otp               otp.Config          `envPrefix:"OTP_"`
	Passwordless      passwordless.Config `envPrefix:"PASSWORDLESS_"`
	Sessions          sessions.Config     `envPrefix:"SESSIONS_"`
	AuthorizationCode oauth.Config        `envPrefix:"AUTHORIZATION_CODE_"`
	AccessToken       accesstoken.Config  `envPrefix:"ACCESS_TOKEN_"`
	ApiKeys           apikeys.Config      `envPrefix:"API_KEYS_"`
	Locker            lockout.Config      `envPrefix:"ACCOUNT_LOCKER_"`

	Passwords passwords.Config `envPrefix:"PASSWORDS_"`
	// Older password configurations as a JSON array, newest first. Kept as
	// JSON because the env tag syntax cannot express a list of sections.
	PasswordsPreviousVersions string `env:"PASSWORDS_PREVIOUS_VERSIONS"`

	LdapEnabled bool        `env:"LDAP_ENABLED" envDefault:"false"`
	Ldap        ldap.Config `envPrefix:"LDAP_"`
}

// LoadConfig reads configuration from the environment. A missing .env file
// is fine; a malformed section is not.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, autherr.Configuration("failed to parse configuration: %v", err)
	}

	if cfg.PasswordsPreviousVersions != "" {
		var previous []passwords.Config
		if err := json.Unmarshal([]byte(cfg.PasswordsPreviousVersions), &previous); err != nil {
			return Config{}, autherr.Configuration("PASSWORDS_PREVIOUS_VERSIONS is not valid JSON: %v", err)
		}
		cfg.Passwords.PreviousVersions = previous
	}

	return cfg, nil
}

// AllowedPairs parses the exchange allow-list entries into pairs.
func (c Config) AllowedPairs() ([]exchange.Pair, error) {
	pairs := make([]exchange.Pair, 0, len(c.ExchangeAllowed))
	for _, entry := range c.ExchangeAllowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		from, to, found := strings.Cut(entry, ":")
		if !found || from == "" || to == "" {
			return nil, autherr.Configuration("exchange allow-list entry %q must be 'from:to'", entry)
		}
		pairs = append(pairs, exchange.Pair{From: from, To: to})
	}
	return pairs, nil
}
