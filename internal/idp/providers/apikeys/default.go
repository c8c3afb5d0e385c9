package apikeys

import (
	"context"
	"errors"
	"time"

	"github.com/tokensquare/guardian/internal/idp/autherr"
	"github.com/tokensquare/guardian/internal/idp/domain"
	"github.com/tokensquare/guardian/internal/idp/store"
	"github.com/tokensquare/guardian/pkg/cryptox"
	"github.com/tokensquare/guardian/pkg/idx"
)

// DefaultExchange issues opaque random keys and stores only their keyed
// hash. The plaintext key is returned exactly once, at generation time.
type DefaultExchange struct {
	hasher     *Hasher
	keys       store.ApiKeys
	apps       store.Apps
	randomSize int
}

func NewDefaultExchange(hasher *Hasher, keys store.ApiKeys, apps store.Apps, randomSize int) *DefaultExchange {
	return &DefaultExchange{hasher: hasher, keys: keys, apps: apps, randomSize: randomSize}
}

func (d *DefaultExchange) GenerateKey(ctx context.Context, app domain.App, expiresAt *time.Time) (string, error) {
	if !app.Usable() {
		return "", autherr.Newf(autherr.KindAppInactive, "app %s is inactive or deleted", app.ID)
	}

	plaintext, err := cryptox.GenerateToken(d.randomSize)
	if err != nil {
		return "", err
	}

	record := domain.ApiKey{
		ID:        idx.New().String(),
		AppID:     app.ID,
		KeyHash:   d.hasher.Hash(plaintext),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.keys.CreateApiKey(ctx, record); err != nil {
		return "", err
	}

	return plaintext, nil
}

func (d *DefaultExchange) VerifyAndGetAppID(ctx context.Context, key string) (string, error) {
	record, err := d.keys.GetApiKeyByHash(ctx, d.hasher.Hash(key))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.New(autherr.KindInvalidToken, "API key does not exist")
		}
		return "", err
	}

	if !record.Valid(time.Now().UTC()) {
		return "", autherr.New(autherr.KindExpiredToken, "API key has expired")
	}

	app, err := d.apps.GetAppByID(ctx, record.AppID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", autherr.Newf(autherr.KindAppDoesNotExist,
				"API key is bound to a missing app")
		}
		return "", err
	}
	if !app.Usable() {
		return "", autherr.Newf(autherr.KindAppInactive, "app %s is inactive or deleted", app.ID)
	}

	return app.ID, nil
}
