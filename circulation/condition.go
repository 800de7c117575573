/*
condition.go - Physical condition partition of a book's stock

PURPOSE:
  Every book's physical copies are partitioned into healthy/damaged/lost
  buckets that must sum to the total stock. Historical data violates this
  freely; NormalizeCounts repairs it without fabricating damage, and
  TryAdjust validates single-unit moves before they are sent to the catalog.

POLICY:
  Healthy is the default bucket. Unaccounted stock is assumed undamaged, so
  a shortfall is credited to healthy; an excess is taken back from healthy
  first, then damaged, then lost.

  TryAdjust models "move one physical copy's status", not "add a copy":
  every move trades against the healthy bucket. Incrementing damaged or lost
  takes a unit from healthy; decrementing them gives the unit back to
  healthy. Decrementing healthy reclassifies the unit as damaged, and
  incrementing healthy at capacity reclaims a unit from damaged first, then
  lost. Decrements from an empty bucket are rejected, never clamped.
*/
package circulation

// Bucket identifies one of the three condition classifications.
type Bucket string

const (
	BucketHealthy Bucket = "healthy"
	BucketDamaged Bucket = "damaged"
	BucketLost    Bucket = "lost"
)

// ConditionCounts is the three-way partition of a book's physical stock.
// Always normalize against the total before trusting the values.
type ConditionCounts struct {
	Healthy int
	Damaged int
	Lost    int
}

// Sum returns healthy+damaged+lost.
func (c ConditionCounts) Sum() int {
	return c.Healthy + c.Damaged + c.Lost
}

func clampCount(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeCounts repairs a partition so that it sums exactly to total with
// every bucket non-negative. Damaged and lost are capped first (they are the
// explicitly-recorded buckets), then healthy absorbs the remainder in either
// direction, falling back to damaged and lost only when healthy hits zero.
func NormalizeCounts(total int, counts ConditionCounts) ConditionCounts {
	if total < 0 {
		total = 0
	}
	healthy := clampCount(counts.Healthy)
	damaged := clampCount(counts.Damaged)
	lost := clampCount(counts.Lost)

	if damaged > total {
		damaged = total
	}
	if lost > total-damaged {
		lost = total - damaged
	}
	if healthy > total-damaged-lost {
		healthy = total - damaged - lost
	}

	sum := healthy + damaged + lost
	switch {
	case sum < total:
		healthy += total - sum
	case sum > total:
		diff := sum - total
		reduce := min(diff, healthy)
		healthy -= reduce
		diff -= reduce
		if diff > 0 {
			reduce = min(diff, damaged)
			damaged -= reduce
			diff -= reduce
		}
		if diff > 0 {
			lost -= min(diff, lost)
		}
	}

	return ConditionCounts{
		Healthy: clampCount(healthy),
		Damaged: clampCount(damaged),
		Lost:    clampCount(lost),
	}
}

// TryAdjust applies a single-unit move (delta must be +1 or -1) to the given
// bucket. The returned flag is false and the counts are returned unchanged
// when the move is invalid: decrementing an empty bucket, or incrementing
// healthy at capacity with nothing to reclaim. A valid move is normalized
// against the total before being returned, so the partition invariant holds
// on every accepted result.
func TryAdjust(total int, counts ConditionCounts, bucket Bucket, delta int) (ConditionCounts, bool) {
	if delta != 1 && delta != -1 {
		return counts, false
	}
	if total < 0 {
		total = 0
	}

	next := counts
	changed := false

	switch bucket {
	case BucketHealthy:
		if delta > 0 {
			if counts.Sum() >= total {
				// At capacity: reclaim a unit from damaged, then lost.
				if next.Damaged > 0 {
					next.Damaged--
					next.Healthy++
					changed = true
				} else if next.Lost > 0 {
					next.Lost--
					next.Healthy++
					changed = true
				}
			} else {
				next.Healthy++
				changed = true
			}
		} else {
			if next.Healthy <= 0 {
				return counts, false
			}
			next.Healthy--
			next.Damaged++
			changed = true
		}

	case BucketDamaged:
		if delta > 0 {
			if next.Healthy <= 0 {
				return counts, false
			}
			next.Healthy--
			next.Damaged++
			changed = true
		} else {
			if next.Damaged <= 0 {
				return counts, false
			}
			next.Damaged--
			next.Healthy++
			changed = true
		}

	case BucketLost:
		if delta > 0 {
			if next.Healthy <= 0 {
				return counts, false
			}
			next.Healthy--
			next.Lost++
			changed = true
		} else {
			if next.Lost <= 0 {
				return counts, false
			}
			next.Lost--
			next.Healthy++
			changed = true
		}
	}

	if !changed {
		return counts, false
	}
	return NormalizeCounts(total, next), true
}
