package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const namePrefix = "owner-name:"

// Names caches owner display names shown on shared files. A nil *Names or
// one without a client caches nothing.
type Names struct {
	c   *Client
	ttl time.Duration
}

func NewNames(c *Client, ttl time.Duration) *Names {
	return &Names{c: c, ttl: ttl}
}

func (n *Names) Get(ctx context.Context, ownerID string) (string, bool) {
	if n == nil || n.c == nil {
		return "", false
	}

	v, err := n.c.Get(ctx, namePrefix+ownerID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			zap.L().Warn("Failed to read cached owner name", zap.String("ownerID", ownerID), zap.Error(err))
		}
		return "", false
	}

	return v, true
}

func (n *Names) Set(ctx context.Context, ownerID, name string) {
	if n == nil || n.c == nil {
		return
	}

	if err := n.c.Set(ctx, namePrefix+ownerID, name, n.ttl); err != nil {
		zap.L().Warn("Failed to cache owner name", zap.String("ownerID", ownerID), zap.Error(err))
	}
}
