package library

import (
	"context"
	"net/http"
	"time"

	"github.com/tessro/cody/internal/cache"
	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/client"
)

// Profiles serves the authenticated user's profile.
type Profiles struct {
	client *client.Client
	cache  *cache.Cache
	ttl    time.Duration
}

// NewProfiles creates the profile service. A zero ttl uses DefaultProfileTTL.
func NewProfiles(c *client.Client, cc *cache.Cache, ttl time.Duration) *Profiles {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &Profiles{client: c, cache: cc, ttl: ttl}
}

// Me returns the current user's profile, from cache when fresh.
func (p *Profiles) Me(ctx context.Context) core.Response[*core.UserProfile] {
	if profile, ok := cache.Get[*core.UserProfile](p.cache, KeyProfile); ok {
		return core.Success(http.StatusOK, copyProfile(profile))
	}
	if resp, ok := unconfigured[*core.UserProfile](p.client); ok {
		return resp
	}

	decoded := client.Decode[*client.User](p.client.GetCurrentUser(ctx))
	if !decoded.OK() {
		return core.Convert[*client.User, *core.UserProfile](decoded)
	}

	profile := ConvertUser(decoded.Data)
	if profile == nil {
		return core.Failure[*core.UserProfile](http.StatusInternalServerError, errEmptyBody)
	}
	p.cache.Set(KeyProfile, copyProfile(profile), p.ttl)
	return core.Success(decoded.Status, profile)
}

// copyProfile keeps callers from editing the cached profile.
func copyProfile(p *core.UserProfile) *core.UserProfile {
	cp := *p
	return &cp
}

// UserID returns the current user's id.
func (p *Profiles) UserID(ctx context.Context) core.Response[string] {
	me := p.Me(ctx)
	if !me.OK() {
		return core.Convert[*core.UserProfile, string](me)
	}
	return core.Success(me.Status, me.Data.ID)
}

// Invalidate drops the cached profile.
func (p *Profiles) Invalidate() {
	p.cache.Delete(KeyProfile)
}
