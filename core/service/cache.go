package service

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"

	"github.com/anomalab/edgegraph/core/audit"
)

const (
	defaultCacheCounters = 1e6 // admission counters, ~10x expected entries
	defaultCacheMaxCost  = 1e7 // 10MB of scored results
	defaultCacheBuffer   = 64
	defaultCacheTTL      = 5 * time.Minute
)

// resultCache memoizes audit scoring runs. Classifier weights are fixed
// after construction, so an identical event batch under the same threshold
// always produces the same scores. Clinical runs are never cached because
// edge recency decays against the wall clock between calls.
type resultCache struct {
	cache  *ristretto.Cache
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

func newResultCache() (*resultCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: defaultCacheCounters,
		MaxCost:     defaultCacheMaxCost,
		BufferItems: defaultCacheBuffer,
	})
	if err != nil {
		return nil, err
	}

	return &resultCache{cache: cache, ttl: defaultCacheTTL}, nil
}

// Get returns the scored edges for key. The caller owns the returned slice.
func (rc *resultCache) Get(key string) ([]ScoredEdge, bool) {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return nil, false
	}
	rc.mu.RUnlock()

	value, found := rc.cache.Get(key)
	if !found {
		return nil, false
	}

	scored, ok := value.([]ScoredEdge)
	if !ok {
		return nil, false
	}
	return cloneScored(scored), true
}

// Set stores a copy of the scored edges under key.
func (rc *resultCache) Set(key string, scored []ScoredEdge) bool {
	rc.mu.RLock()
	if rc.closed {
		rc.mu.RUnlock()
		return false
	}
	rc.mu.RUnlock()

	return rc.cache.SetWithTTL(key, cloneScored(scored), estimateCost(scored), rc.ttl)
}

// Wait blocks until pending sets are visible to Get.
func (rc *resultCache) Wait() {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	if rc.closed {
		return
	}
	rc.cache.Wait()
}

// Close releases the cache's resources.
func (rc *resultCache) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.closed {
		return
	}
	rc.closed = true
	rc.cache.Close()
}

// cloneScored deep-copies scored edges so cached entries stay isolated from
// caller mutation.
func cloneScored(scored []ScoredEdge) []ScoredEdge {
	out := make([]ScoredEdge, len(scored))
	copy(out, scored)
	for i := range out {
		if out[i].ContributingFactors == nil {
			continue
		}
		factors := make(map[string]float64, len(out[i].ContributingFactors))
		for k, v := range out[i].ContributingFactors {
			factors[k] = v
		}
		out[i].ContributingFactors = factors
	}
	return out
}

func estimateCost(scored []ScoredEdge) int64 {
	cost := int64(64)
	for i := range scored {
		cost += 128
		cost += int64(len(scored[i].OriginID) + len(scored[i].Source) + len(scored[i].Target))
		cost += int64(len(scored[i].Explanation))
		for k := range scored[i].ContributingFactors {
			cost += int64(len(k)) + 8
		}
	}
	return cost
}

// scoreFingerprint derives the cache key for an event batch scored at a
// threshold. Event order matters: ordering changes node index assignment.
func scoreFingerprint(events []audit.LogEvent, threshold float64) string {
	d := xxhash.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(threshold))
	_, _ = d.Write(buf[:])

	for i := range events {
		ev := &events[i]
		_, _ = d.WriteString(ev.EventID)
		_, _ = d.WriteString("\x00")
		binary.LittleEndian.PutUint64(buf[:], uint64(ev.Timestamp.UnixNano()))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(ev.SourceEntity)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(ev.DestinationEntity)
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(ev.Action)
		_, _ = d.WriteString("\x00")

		keys := make([]string, 0, len(ev.Metadata))
		for k := range ev.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = d.WriteString(k)
			_, _ = d.WriteString("\x00")
			_, _ = d.WriteString(ev.Metadata[k])
			_, _ = d.WriteString("\x00")
		}
	}

	return strconv.FormatUint(d.Sum64(), 16)
}
