package app

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/bus"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/events"
	"github.com/tokensquare/guardian/internal/idp/exchange"
	"github.com/tokensquare/guardian/internal/idp/lockout"
	"github.com/tokensquare/guardian/internal/idp/passwords"
	"github.com/tokensquare/guardian/internal/idp/providers/accesstoken"
	"github.com/tokensquare/guardian/internal/idp/providers/apikeys"
	"github.com/tokensquare/guardian/internal/idp/providers/basic"
	"github.com/tokensquare/guardian/internal/idp/providers/ldap"
	"github.com/tokensquare/guardian/internal/idp/providers/oauth"
	"github.com/tokensquare/guardian/internal/idp/providers/otp"
	"github.com/tokensquare/guardian/internal/idp/providers/passwordless"
	"github.com/tokensquare/guardian/internal/idp/providers/sessions"
	"github.com/tokensquare/guardian/internal/idp/providers/totp"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/internal/idp/store/drivers/sqlite"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application is the composed identity provider: store, bus, password
// provider, exchange registry and the background workers, wired explicitly
// at startup. Any configuration problem fails New; nothing is deferred to
// the first request.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db  store.Store
	bus *bus.Bus

	passwords *passwords.Provider
	exchanges *exchange.Service
	apiKeys   apikeys.KeyExchange
	locker    *lockout.Locker

	housekeeping *Housekeeping
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "guardian",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.bus = bus.New(app.logger)

	provider, err := passwords.NewProvider(cfg.Passwords)
	if err != nil {
		return nil, err
	}
	app.passwords = provider

	app.locker = lockout.NewLocker(app.db.ExchangeAttempts(), app.db.AccountLocks(), cfg.Locker, app.logger)
	app.bus.Subscribe(events.ChannelAuth, app.locker)

	if err := app.initExchanges(); err != nil {
		return nil, err
	}

	app.housekeeping = NewHousekeeping(app.db, app.logger, cfg.HousekeepingInterval)

	return app, nil
}

// Exchanges exposes the exchange service to the transport layer.
func (app *Application) Exchanges() *exchange.Service { return app.exchanges }

// ApiKeys exposes the configured API key variant.
func (app *Application) ApiKeys() apikeys.KeyExchange { return app.apiKeys }

// Store exposes the root store for administrative surfaces.
func (app *Application) Store() store.Store { return app.db }

// Run blocks until a shutdown signal arrives.
func (app *Application) Run() error {
	app.housekeeping.Start()
	app.logger.Info("guardian starting", "version", BuildVersion)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	app.logger.Info("shutdown signal received", "signal", sig)
	return app.Shutdown()
}

// Shutdown stops the workers, drains in-flight bus deliveries and closes
// the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down guardian...")

	app.housekeeping.Stop()
	app.bus.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("guardian stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initExchanges builds every provider and verifier, registers the
// implemented exchanges and validates them against the allow-list.
func (app *Application) initExchanges() error {
	signingKey, err := app.loadSigningKey()
	if err != nil {
		return err
	}

	// Target-side providers.
	otpProvider := otp.NewProvider(app.db.Otps(), app.bus, app.cfg.Otp)
	passwordlessProvider := passwordless.NewProvider(app.db.AccountTokens(), app.bus, app.cfg.Passwordless)
	sessionProvider := sessions.NewProvider(app.db.Sessions(), app.cfg.Sessions)
	codeProvider := oauth.NewProvider(app.db.AccountTokens(), app.cfg.AuthorizationCode)
	tokenProvider, err := accesstoken.NewProvider(signingKey, app.cfg.AccessToken)
	if err != nil {
		return err
	}

	// Source-side authenticators, all guarded by the lockout check.
	basicAuthn := app.guarded(basic.NewAuthenticator(
		app.db.Credentials(), app.db.Accounts(), app.passwords, app.logger))
	otpAuthn := app.guarded(exchange.NewVerifierAuthenticator(otp.NewVerifier(app.db.Otps()), app.db.Accounts()))
	totpAuthn := app.guarded(exchange.NewVerifierAuthenticator(totp.NewVerifier(app.db.Credentials()), app.db.Accounts()))
	passwordlessAuthn := app.guarded(exchange.NewVerifierAuthenticator(passwordless.NewVerifier(app.db.AccountTokens()), app.db.Accounts()))
	sessionAuthn := app.guarded(exchange.NewVerifierAuthenticator(sessions.NewVerifier(app.db.Sessions()), app.db.Accounts()))
	codeAuthn := app.guarded(exchange.NewVerifierAuthenticator(oauth.NewVerifier(app.db.AccountTokens()), app.db.Accounts()))

	builder := exchange.NewBuilder()
	for _, provider := range []struct {
		scheme string
		impl   exchange.AuthProvider
	}{
		{exchange.SchemeOtp, otpProvider},
		{exchange.SchemePasswordless, passwordlessProvider},
		{exchange.SchemeSession, sessionProvider},
		{exchange.SchemeAuthorizationCode, codeProvider},
		{exchange.SchemeAccessToken, tokenProvider},
	} {
		builder.Register(exchange.New(exchange.SchemeBasic, provider.scheme, basicAuthn, provider.impl))
		builder.Register(exchange.New(exchange.SchemeOtp, provider.scheme, otpAuthn, provider.impl))
		builder.Register(exchange.New(exchange.SchemeTotp, provider.scheme, totpAuthn, provider.impl))
		builder.Register(exchange.New(exchange.SchemePasswordless, provider.scheme, passwordlessAuthn, provider.impl))
		builder.Register(exchange.New(exchange.SchemeSession, provider.scheme, sessionAuthn, provider.impl))
		builder.Register(exchange.New(exchange.SchemeAuthorizationCode, provider.scheme, codeAuthn, provider.impl))
	}

	if app.cfg.LdapEnabled {
		ldapAuthn, err := ldap.NewAuthenticator(app.cfg.Ldap, app.db.Accounts(), app.logger)
		if err != nil {
			return err
		}
		guarded := app.guarded(ldapAuthn)
		builder.Register(exchange.New(exchange.SchemeLdap, exchange.SchemeSession, guarded, sessionProvider))
		builder.Register(exchange.New(exchange.SchemeLdap, exchange.SchemeAccessToken, guarded, tokenProvider))
		builder.Register(exchange.New(exchange.SchemeLdap, exchange.SchemeOtp, guarded, otpProvider))
	}

	allowed, err := app.cfg.AllowedPairs()
	if err != nil {
		return err
	}
	registry, err := builder.Build(allowed)
	if err != nil {
		return err
	}
	app.logger.Info("exchange registry validated", "pairs", len(registry.Pairs()))

	app.exchanges = exchange.NewService(registry, app.db.ExchangeAttempts(), app.bus, app.logger)
	app.exchanges.RegisterRevoker(sessionProvider)

	return app.initApiKeys(signingKey)
}

func (app *Application) initApiKeys(signingKey ed25519.PrivateKey) error {
	switch app.cfg.ApiKeys.Variant {
	case apikeys.VariantDefault:
		hasher, err := apikeys.NewHasher(app.cfg.ApiKeys.HashingKey)
		if err != nil {
			return err
		}
		app.apiKeys = apikeys.NewDefaultExchange(hasher, app.db.ApiKeys(), app.db.Apps(), app.cfg.ApiKeys.RandomSize)
	case apikeys.VariantJwt:
		ex, err := apikeys.NewJwtExchange(signingKey, app.cfg.ApiKeys.Issuer, app.cfg.ApiKeys.JwtKeyLife)
		if err != nil {
			return err
		}
		app.apiKeys = ex
	default:
		return autherr.Configuration("unsupported API key variant %q", app.cfg.ApiKeys.Variant)
	}
	return nil
}

// loadSigningKey parses the configured Ed25519 key, or generates an
// ephemeral one. Ephemeral keys invalidate all signed tokens on restart, so
// they only make sense outside production.
func (app *Application) loadSigningKey() (ed25519.PrivateKey, error) {
	if app.cfg.AccessToken.PrivateKey != "" {
		return accesstoken.ParseSigningKey(app.cfg.AccessToken.PrivateKey)
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return nil, err
	}
	app.logger.Warn("no signing key configured, generated an ephemeral Ed25519 key")
	return cryptox.ParseEd25519Key(pemKey)
}

// guarded wraps an authenticator with the account lock check: a locked
// account cannot authenticate through any scheme.
func (app *Application) guarded(inner exchange.Authenticator) exchange.Authenticator {
	return &lockGuard{inner: inner, locker: func(ctx context.Context, accountID string) (bool, error) {
		return app.locker.IsLocked(ctx, accountID)
	}}
}

type lockGuard struct {
	inner  exchange.Authenticator
	locker func(ctx context.Context, accountID string) (bool, error)
}

func (g *lockGuard) Authenticate(ctx context.Context, req domain.AuthRequest) (domain.Account, error) {
	account, err := g.inner.Authenticate(ctx, req)
	if err != nil {
		return domain.Account{}, err
	}

	locked, err := g.locker(ctx, account.ID)
	if err != nil {
		return domain.Account{}, err
	}
	if locked {
		return domain.Account{}, autherr.ForAccount(autherr.KindAccountInactive,
			"account is locked", account.ID)
	}
	return account, nil
}
