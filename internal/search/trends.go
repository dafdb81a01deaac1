// Package search tracks what customers search for: a global redis sorted-set
// leaderboard of keywords plus a capped, expiring per-user history list.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oribuyin/backend/internal/pkg/cache"
)

const globalKey = "search:global"

func userKey(userID string) string {
	return "search:user:" + userID
}

// TrendEntry is one keyword of the global leaderboard with its hit count.
type TrendEntry struct {
	Keyword string
	Count   int64
}

// Tracker records and serves search trends. Recording is best-effort: a
// redis failure is logged and swallowed, never failing the search request
// that triggered it.
type Tracker struct {
	cache      cache.Cache
	maxHistory int
	historyTTL time.Duration
}

// NewTracker builds a Tracker. maxHistory caps the per-user history list;
// historyTTL expires an inactive user's history (0 disables expiry).
func NewTracker(c cache.Cache, maxHistory int, historyTTL time.Duration) *Tracker {
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Tracker{cache: c, maxHistory: maxHistory, historyTTL: historyTTL}
}

// Record counts the keyword on the global leaderboard and prepends it to the
// user's history. An empty keyword (after normalisation) records nothing;
// an empty userID records only the global count.
func (t *Tracker) Record(ctx context.Context, userID, keyword string) {
	k := normalize(keyword)
	if k == "" {
		return
	}

	if err := t.cache.ZIncrBy(ctx, globalKey, k, 1); err != nil {
		slog.ErrorContext(ctx, "search: failed to record global trend", "keyword", k, "error", err)
		return
	}

	if userID == "" {
		return
	}

	ukey := userKey(userID)
	if err := t.cache.LPush(ctx, ukey, k); err != nil {
		slog.ErrorContext(ctx, "search: failed to record user history", "user_id", userID, "error", err)
		return
	}
	if err := t.cache.LTrim(ctx, ukey, 0, int64(t.maxHistory-1)); err != nil {
		slog.ErrorContext(ctx, "search: failed to trim user history", "user_id", userID, "error", err)
	}
	if t.historyTTL > 0 {
		if err := t.cache.Expire(ctx, ukey, t.historyTTL); err != nil {
			slog.ErrorContext(ctx, "search: failed to refresh history ttl", "user_id", userID, "error", err)
		}
	}
}

// Top returns the limit most searched keywords, most popular first.
func (t *Tracker) Top(ctx context.Context, limit int) ([]TrendEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	members, err := t.cache.ZRevRangeWithScores(ctx, globalKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}

	entries := make([]TrendEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, TrendEntry{Keyword: m.Member, Count: int64(m.Score)})
	}
	return entries, nil
}

// History returns the user's most recent searches, newest first.
func (t *Tracker) History(ctx context.Context, userID string, limit int) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	if limit <= 0 || limit > t.maxHistory {
		limit = t.maxHistory
	}
	return t.cache.LRange(ctx, userKey(userID), 0, int64(limit-1))
}

// ClearHistory drops the user's search history.
func (t *Tracker) ClearHistory(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return t.cache.Del(ctx, userKey(userID))
}

func normalize(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
