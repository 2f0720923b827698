package facade

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// snapshotFingerprint canonically encodes the inputs one reflow pass
// would hydrate and hashes them with sha256, returning the bare hex digest
// that the cache key helpers prefix per cache (spec §9, "façade owns
// caches": schedule-result, pattern-expansion, CSP-fingerprint), mirroring
// the teacher's storage namespacing idiom (internal/orbit/api/storage.go's
// namespaceKey). No fnv32 shard is added to the keys; see cacheShard.
func snapshotFingerprint(userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate, series []*domain.Series, completions map[uuid.UUID][]*domain.Completion, exceptions map[uuid.UUID][]*domain.InstanceException, constraints []*domain.Constraint) string {
	h := sha256.New()
	fmt.Fprintf(h, "user=%s|window=%s..%s\n", userID, windowStart, windowEnd)

	sorted := make([]*domain.Series, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID().String() < sorted[j].ID().String() })

	for _, s := range sorted {
		fmt.Fprintf(h, "series=%s|v=%d|archived=%t|locked=%t|adaptive=%t|start=%s\n",
			s.ID(), s.Version(), s.IsArchived(), s.IsLocked(), s.HasAdaptiveDuration(), s.StartDate())
		for _, p := range s.Patterns() {
			fmt.Fprintf(h, "  pattern=%s|dur=%d|fixed=%t|allday=%t\n", p.Kind(), p.DurationMinutes(), p.IsFixed(), p.IsAllDay())
		}
		for _, c := range completions[s.ID()] {
			fmt.Fprintf(h, "  completion=%s\n", c.InstanceDate())
		}
		for _, e := range exceptions[s.ID()] {
			fmt.Fprintf(h, "  exception=%s|%s\n", e.OriginalDate(), e.Kind())
		}
	}

	sortedConstraints := make([]*domain.Constraint, len(constraints))
	copy(sortedConstraints, constraints)
	sort.Slice(sortedConstraints, func(i, j int) bool { return sortedConstraints[i].ID().String() < sortedConstraints[j].ID().String() })
	for _, c := range sortedConstraints {
		fmt.Fprintf(h, "constraint=%s|%s\n", c.ID(), c.Kind())
	}

	return hex.EncodeToString(h.Sum(nil))
}

// cacheShard buckets a fingerprint into one of a fixed number of fnv32
// shards, for spreading cache keys across Redis hash slots in cluster
// deployments. None of the cache key helpers call it.
func cacheShard(fingerprint string, shards uint32) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fingerprint))
	return h.Sum32() % shards
}
