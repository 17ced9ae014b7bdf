package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"kaiapay.backend/internal/domain/entities"
	"kaiapay.backend/pkg/logger"
	"kaiapay.backend/pkg/redis"
)

// Provider resolves identity users by id
type Provider interface {
	GetUser(ctx context.Context, userID string) (*entities.IdentityUser, error)
}

// Cache is the subset of the redis JSON cache used here
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
}

// CachedProvider serves users from redis and falls back to the inner provider.
// Users without a smart wallet are not cached; the wallet is usually created
// right after sign up.
type CachedProvider struct {
	inner Provider
	cache Cache
}

func NewCachedProvider(inner Provider, cache Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func (p *CachedProvider) GetUser(ctx context.Context, userID string) (*entities.IdentityUser, error) {
	var cached entities.IdentityUser
	err := p.cache.GetJSON(ctx, userID, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		logger.Warn(ctx, "identity cache read failed", zap.String("userId", userID), zap.Error(err))
	}

	user, err := p.inner.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SmartWalletAddress != "" {
		if err := p.cache.SetJSON(ctx, userID, user); err != nil {
			logger.Warn(ctx, "identity cache write failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return user, nil
}
