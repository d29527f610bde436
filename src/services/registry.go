package services

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/riconcilia/src/model"
)

const DefaultRegistryCacheTTL = 10 * time.Minute

// InstallationRegistry resolves POS codes to installation ids, caching hits.
// Misses are not cached so newly registered installations are picked up on the next run.
type InstallationRegistry struct {
	cache *cache.Cache
}

func NewInstallationRegistry(ttl time.Duration) *InstallationRegistry {
	if ttl <= 0 {
		ttl = DefaultRegistryCacheTTL
	}
	return &InstallationRegistry{cache: cache.New(ttl, 2*ttl)}
}

// Lookup returns model.ErrInstallationNotFound for unknown codes.
func (r *InstallationRegistry) Lookup(ctx context.Context, q model.Querier, posCode int64) (int64, error) {
	key := strconv.FormatInt(posCode, 10)
	if id, found := r.cache.Get(key); found {
		return id.(int64), nil
	}

	id, err := model.GetInstallationIDByPOSCode(ctx, q, posCode)
	if err != nil {
		return 0, err
	}
	r.cache.Set(key, id, cache.DefaultExpiration)
	return id, nil
}

// Invalidate drops every cached mapping.
func (r *InstallationRegistry) Invalidate() {
	r.cache.Flush()
}
