package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rezonia/pdf-signature-checker/internal/model"
)

// DefaultCacheTTL is how long a report for the same bytes is reused
const DefaultCacheTTL = 10 * time.Minute

// ReportCache caches reports by document digest so re-uploads of the same
// file skip the service. Failures are never cached.
type ReportCache struct {
	mu      sync.RWMutex
	entries map[string]*reportCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type reportCacheEntry struct {
	report    model.VerificationReport
	expiresAt time.Time
}

// NewReportCache creates a new report cache
func NewReportCache(ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReportCache{
		entries: make(map[string]*reportCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached report for data
func (c *ReportCache) Get(data []byte) (*model.VerificationReport, bool) {
	key := digest(data)

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	now := c.now()
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was released
		if current, ok := c.entries[key]; ok && now.After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	report := entry.report.Clone()
	return &report, true
}

// Set stores a copy of report for data
func (c *ReportCache) Set(data []byte, report *model.VerificationReport) {
	if report == nil {
		return
	}

	c.mu.Lock()
	c.entries[digest(data)] = &reportCacheEntry{
		report:    report.Clone(),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Clear removes all cached entries
func (c *ReportCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*reportCacheEntry)
	c.mu.Unlock()
}

// Size returns the number of cached entries
func (c *ReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CachingVerifier wraps a Verifier with a ReportCache
type CachingVerifier struct {
	next  Verifier
	cache *ReportCache
}

// NewCachingVerifier creates a caching wrapper around next
func NewCachingVerifier(next Verifier, cache *ReportCache) *CachingVerifier {
	if cache == nil {
		cache = NewReportCache(DefaultCacheTTL)
	}
	return &CachingVerifier{next: next, cache: cache}
}

// Verify returns the cached report for data or asks the wrapped verifier
func (v *CachingVerifier) Verify(ctx context.Context, data []byte) (*model.VerificationReport, error) {
	if report, ok := v.cache.Get(data); ok {
		return report, nil
	}

	report, err := v.next.Verify(ctx, data)
	if err != nil {
		return nil, err
	}
	v.cache.Set(data, report)
	return report, nil
}
