package fieldapi

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/afcommunity/fieldmap/internal/entity"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability/metrics"
)

// cacheRecorder is implemented by recorders that count cache results.
type cacheRecorder interface {
	RecordCacheResult(result string)
}

// Members returns the member list of the community with code. Lists are
// cached for the configured TTL and concurrent lookups of the same code
// share one request. A zero TTL disables caching.
func (c *Client) Members(ctx context.Context, code string) ([]entity.Member, error) {
	if cached, found := c.members.Get(code); found {
		if members, ok := cached.([]entity.Member); ok {
			c.recordCache(metrics.CacheHit)
			c.log.Debug("member list cache hit",
				logger.String("code", code),
				logger.Int("members", len(members)))
			return slices.Clone(members), nil
		}
	}

	v, err, shared := c.membersGroup.Do(code, func() (any, error) {
		c.recordCache(metrics.CacheMiss)
		var resp membersResponse
		err := c.do(ctx, request{
			op:     metrics.OpMembers,
			method: http.MethodGet,
			path:   "/get-members" + pathSegment(code),
		}, &resp)
		if err != nil {
			return nil, err
		}
		members := resp.Members
		if members == nil {
			members = []entity.Member{}
		}
		if c.membersTTL > 0 {
			c.members.Set(code, members, cache.DefaultExpiration)
		}
		return members, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.recordCache(metrics.CacheShared)
	}
	return slices.Clone(v.([]entity.Member)), nil
}

// ForgetMembers drops the cached member list of code.
func (c *Client) ForgetMembers(code string) {
	c.members.Delete(code)
}

func (c *Client) recordCache(result string) {
	if r, ok := c.metrics.(cacheRecorder); ok {
		r.RecordCacheResult(result)
	}
}

// FilterMembers returns the members whose name contains query, ignoring
// case. An empty query returns every member.
func FilterMembers(members []entity.Member, query string) []entity.Member {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return slices.Clone(members)
	}
	var out []entity.Member
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), query) {
			out = append(out, m)
		}
	}
	return out
}
