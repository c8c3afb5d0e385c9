package passwords

import (
	"github.com/tokensquare/guardian/internal/idp/autherr"
)

// Provider resolves the right SecurePassword implementation for a password
// version. New hashes always use the current configuration; verification may
// fall back through previous versions in their configured order.
type Provider struct {
	current        SecurePassword
	version        int
	minimumVersion int
	previous       []versioned
}

type versioned struct {
	version int
	impl    SecurePassword
}

// NewProvider builds a Provider from config. An unknown algorithm anywhere in
// the chain is a configuration error and must abort startup.
func NewProvider(cfg Config) (*Provider, error) {
	current, err := newSecurePassword(cfg)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		current:        current,
		version:        cfg.Version,
		minimumVersion: cfg.MinimumVersion,
	}

	for _, prev := range cfg.PreviousVersions {
		impl, err := newSecurePassword(prev)
		if err != nil {
			return nil, err
		}
		p.previous = append(p.previous, versioned{version: prev.Version, impl: impl})
	}

	return p, nil
}

// Current returns the implementation used for new hashes.
func (p *Provider) Current() SecurePassword { return p.current }

// CurrentVersion returns the version recorded on newly hashed credentials.
func (p *Provider) CurrentVersion() int { return p.version }

// ForVersion returns the implementation matching a stored hash's version,
// falling back through previous versions in order. The second return value is
// false when no configuration covers the version.
func (p *Provider) ForVersion(version int) (SecurePassword, bool) {
	if version == p.version {
		return p.current, true
	}

	for _, prev := range p.previous {
		if prev.version == version {
			return prev.impl, true
		}
	}

	return nil, false
}

// BelowMinimum reports whether credentials hashed under the given version
// must be rehashed. The caller decides how to force the rehash; this core
// only exposes the signal.
func (p *Provider) BelowMinimum(version int) bool {
	return version < p.minimumVersion
}

func newSecurePassword(cfg Config) (SecurePassword, error) {
	switch cfg.Algorithm {
	case "bcrypt":
		return NewBcryptPassword(cfg.Bcrypt), nil
	case "scrypt":
		return NewScryptPassword(cfg.Scrypt), nil
	case "argon2":
		return NewArgon2Password(cfg.Argon2), nil
	case "pbkdf2":
		return NewPbkdf2Password(cfg.Pbkdf2)
	default:
		return nil, autherr.Configuration("unsupported password algorithm %q", cfg.Algorithm)
	}
}
