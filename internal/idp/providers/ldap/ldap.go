// Package ldap bridges an external directory into the exchange engine: the
// caller authenticates with a basic-style identifier:password against LDAP,
// the directory entry is mapped onto a local account, and token issuance is
// delegated to whatever provider the exchange pairs it with.
package ldap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ldap "github.com/go-ldap/ldap/v3"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/providers/basic"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/idx"
)

// Bind strategies.
const (
	BindTypeAdmin  = "admin"  // bind as admin, search for the user, rebind as the user
	BindTypeDirect = "direct" // construct the user DN and bind directly
)

// FieldMapping names the directory attributes copied onto the account shape.
// Empty attribute names are simply skipped.
type FieldMapping struct {
	Email       string `env:"EMAIL" envDefault:"mail"`
	Roles       string `env:"ROLES"`
	Permissions string `env:"PERMISSIONS"`
}

type Config struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT" envDefault:"389"`
	IsSecure        bool          `env:"IS_SECURE" envDefault:"false"`
	BaseDN          string        `env:"BASE_DN"`
	Admin           string        `env:"ADMIN"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`
	SearchAttribute string        `env:"SEARCH_ATTRIBUTE" envDefault:"uid"`
	BindType        string        `env:"BIND_TYPE" envDefault:"admin"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"10s"`

	FieldMapping FieldMapping `envPrefix:"FIELD_"`
}

func (c Config) url() string {
	scheme := "ldap"
	if c.IsSecure {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Authenticator is the source side of every ldap -> X exchange. Directory
// entries are mirrored into the local account store on first login so issued
// tokens have an account to bind to.
type Authenticator struct {
	cfg      Config
	accounts store.Accounts
	logger   *slog.Logger

	// dial is swappable for tests.
	dial func() (conn, error)
}

type conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

func NewAuthenticator(cfg Config, accounts store.Accounts, logger *slog.Logger) (*Authenticator, error) {
	if cfg.Host == "" || cfg.BaseDN == "" {
		return nil, autherr.Configuration("LDAP host and base DN are required")
	}
	if cfg.BindType != BindTypeAdmin && cfg.BindType != BindTypeDirect {
		return nil, autherr.Configuration("unsupported LDAP bind type %q", cfg.BindType)
	}
	if cfg.BindType == BindTypeAdmin && cfg.Admin == "" {
		return nil, autherr.Configuration("LDAP admin bind requires admin credentials")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Authenticator{cfg: cfg, accounts: accounts, logger: logger}
	a.dial = func() (conn, error) {
		c, err := ldap.DialURL(cfg.url())
		if err != nil {
			return nil, err
		}
		c.SetTimeout(cfg.Timeout)
		return c, nil
	}
	return a, nil
}

func (a *Authenticator) Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Account, error) {
	identifier, password := req.Identifier, req.Password
	if identifier == "" && req.Token != "" {
		var err error
		identifier, password, err = basic.ParseHeader(req.Token)
		if err != nil {
			return domain.Account{}, err
		}
	}

	entry, err := a.bind(identifier, password)
	if err != nil {
		return domain.Account{}, err
	}

	return a.resolveAccount(ctx, entry)
}

// bind authenticates against the directory and returns the user's entry with
// the mapped attributes. Directory failures surface as the same error kinds
// as local schemes; nothing LDAP-specific crosses the exchange boundary.
func (a *Authenticator) bind(identifier, password string) (*ldap.Entry, error) {
	c, err := a.dial()
	if err != nil {
		return nil, fmt.Errorf("ldap: dial %s: %w", a.cfg.url(), err)
	}
	defer c.Close()

	userDN := fmt.Sprintf("%s=%s,%s",
		a.cfg.SearchAttribute, ldap.EscapeDN(identifier), a.cfg.BaseDN)

	if a.cfg.BindType == BindTypeAdmin {
		if err := c.Bind(a.cfg.Admin, a.cfg.AdminPassword); err != nil {
			// The admin credentials are server-side state; their failure is an
			// internal error, never attributed to the caller.
			a.logger.Error("ldap admin bind failed",
				slog.String("admin", a.cfg.Admin),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("ldap: admin bind: %w", err)
		}

		entry, err := a.search(c, identifier)
		if err != nil {
			return nil, err
		}
		userDN = entry.DN

		if err := c.Bind(userDN, password); err != nil {
			return nil, mapBindError(err)
		}
		return entry, nil
	}

	if err := c.Bind(userDN, password); err != nil {
		return nil, mapBindError(err)
	}
	return a.search(c, identifier)
}

func (a *Authenticator) search(c conn, identifier string) (*ldap.Entry, error) {
	attributes := []string{"dn"}
	for _, attr := range []string{a.cfg.FieldMapping.Email, a.cfg.FieldMapping.Roles, a.cfg.FieldMapping.Permissions} {
		if attr != "" {
			attributes = append(attributes, attr)
		}
	}

	res, err := c.Search(ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(%s=%s)", a.cfg.SearchAttribute, ldap.EscapeFilter(identifier)),
		attributes,
		nil,
	))
	if err != nil {
		return nil, mapBindError(err)
	}
	if len(res.Entries) == 0 {
		return nil, autherr.Newf(autherr.KindCredentialsDoesNotExist,
			"no directory entry for identifier %q", identifier)
	}
	return res.Entries[0], nil
}

// resolveAccount mirrors the directory entry into the local account store,
// keyed by the entry DN. Existing accounts keep their local state.
func (a *Authenticator) resolveAccount(ctx context.Context, entry *ldap.Entry) (domain.Account, error) {
	account, err := a.accounts.GetAccountByExternalID(ctx, entry.DN)
	if err == nil {
		if !account.Usable() {
			return domain.Account{}, autherr.ForAccount(autherr.KindAccountInactive,
				"account is inactive or deleted", account.ID)
		}
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	now := time.Now().UTC()
	account = domain.Account{
		ID:          idx.New().String(),
		ExternalID:  entry.DN,
		Email:       a.attribute(entry, a.cfg.FieldMapping.Email),
		Roles:       a.attributes(entry, a.cfg.FieldMapping.Roles),
		Permissions: a.attributes(entry, a.cfg.FieldMapping.Permissions),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.accounts.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}

	a.logger.Info("mirrored directory entry into local account",
		slog.String("account_id", account.ID),
		slog.String("dn", entry.DN),
	)
	return account, nil
}

func (a *Authenticator) attribute(entry *ldap.Entry, name string) string {
	if name == "" {
		return ""
	}
	return entry.GetAttributeValue(name)
}

func (a *Authenticator) attributes(entry *ldap.Entry, name string) []string {
	if name == "" {
		return nil
	}
	return entry.GetAttributeValues(name)
}

func mapBindError(err error) error {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
		return autherr.New(autherr.KindPasswordsDoNotMatch, "directory rejected the credentials")
	}
	if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
		return autherr.New(autherr.KindCredentialsDoesNotExist, "directory entry does not exist")
	}
	return fmt.Errorf("ldap: %w", err)
}
