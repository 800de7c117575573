package circulation_test

import (
	"testing"

	"github.com/kutuphane/circulation-engine/circulation"
)

func counts(healthy, damaged, lost int) circulation.ConditionCounts {
	return circulation.ConditionCounts{Healthy: healthy, Damaged: damaged, Lost: lost}
}

func assertInvariant(t *testing.T, total int, c circulation.ConditionCounts) {
	t.Helper()
	if c.Healthy < 0 || c.Damaged < 0 || c.Lost < 0 {
		t.Errorf("negative bucket in %+v", c)
	}
	if c.Sum() != total {
		t.Errorf("sum %d != total %d for %+v", c.Sum(), total, c)
	}
}

func TestNormalizeCounts_Invariant(t *testing.T) {
	cases := []struct {
		name  string
		total int
		in    circulation.ConditionCounts
		want  circulation.ConditionCounts
	}{
		{"already consistent", 5, counts(3, 1, 1), counts(3, 1, 1)},
		{"shortfall credited to healthy", 10, counts(2, 1, 1), counts(8, 1, 1)},
		{"excess taken from healthy first", 4, counts(5, 1, 1), counts(2, 1, 1)},
		{"damaged capped at total", 3, counts(0, 7, 0), counts(0, 3, 0)},
		{"lost capped after damaged", 3, counts(0, 2, 5), counts(0, 2, 1)},
		{"negative buckets clamped", 4, counts(-2, -1, 1), counts(3, 0, 1)},
		{"zero total empties everything", 0, counts(2, 1, 1), counts(0, 0, 0)},
		{"negative total treated as zero", -3, counts(1, 0, 0), counts(0, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := circulation.NormalizeCounts(tc.total, tc.in)
			if got != tc.want {
				t.Errorf("NormalizeCounts(%d, %+v) = %+v, want %+v", tc.total, tc.in, got, tc.want)
			}
			wantTotal := tc.total
			if wantTotal < 0 {
				wantTotal = 0
			}
			assertInvariant(t, wantTotal, got)
		})
	}
}

func TestNormalizeCounts_Idempotent(t *testing.T) {
	inputs := []struct {
		total int
		c     circulation.ConditionCounts
	}{
		{5, counts(9, 2, 2)},
		{3, counts(0, 0, 0)},
		{7, counts(1, 1, 1)},
		{0, counts(4, 4, 4)},
	}

	for _, in := range inputs {
		once := circulation.NormalizeCounts(in.total, in.c)
		twice := circulation.NormalizeCounts(in.total, once)
		if once != twice {
			t.Errorf("normalize not idempotent for total=%d %+v: %+v then %+v", in.total, in.c, once, twice)
		}
	}
}

func TestTryAdjust_EmptyBucketDecrementRejected(t *testing.T) {
	// GIVEN: a partition with an empty bucket
	// WHEN: decrementing that bucket
	// THEN: the move is rejected, never clamped silently
	for _, bucket := range []circulation.Bucket{
		circulation.BucketHealthy,
		circulation.BucketDamaged,
		circulation.BucketLost,
	} {
		start := counts(0, 0, 0)
		switch bucket {
		case circulation.BucketHealthy:
			start = counts(0, 2, 1) // healthy empty
		case circulation.BucketDamaged:
			start = counts(3, 0, 0) // damaged empty
		case circulation.BucketLost:
			start = counts(2, 1, 0) // lost empty
		}

		got, changed := circulation.TryAdjust(3, start, bucket, -1)
		if changed {
			t.Errorf("decrement of empty %s should be rejected", bucket)
		}
		if got != start {
			t.Errorf("rejected adjust must leave counts unchanged: got %+v, want %+v", got, start)
		}
	}
}

func TestTryAdjust_LostDecrementMovesUnitToHealthy(t *testing.T) {
	// The compensating bucket for every single-unit move is healthy: a copy
	// recovered from the lost bucket is assumed sound.
	got, changed := circulation.TryAdjust(3, counts(1, 1, 1), circulation.BucketLost, -1)

	if !changed {
		t.Fatal("expected the move to be accepted")
	}
	if got != counts(2, 1, 0) {
		t.Errorf("got %+v, want {2 1 0}", got)
	}
	assertInvariant(t, 3, got)
}

func TestTryAdjust_DamagedIncrementTakesFromHealthy(t *testing.T) {
	got, changed := circulation.TryAdjust(3, counts(2, 1, 0), circulation.BucketDamaged, 1)

	if !changed || got != counts(1, 2, 0) {
		t.Errorf("got %+v changed=%v, want {1 2 0} changed=true", got, changed)
	}

	// No healthy copy left to reclassify: rejected.
	_, changed = circulation.TryAdjust(3, counts(0, 2, 1), circulation.BucketDamaged, 1)
	if changed {
		t.Error("damaged increment without a healthy unit should be rejected")
	}
}

func TestTryAdjust_HealthyDecrementMovesUnitToDamaged(t *testing.T) {
	got, changed := circulation.TryAdjust(3, counts(2, 0, 1), circulation.BucketHealthy, -1)

	if !changed || got != counts(1, 1, 1) {
		t.Errorf("got %+v changed=%v, want {1 1 1} changed=true", got, changed)
	}
}

func TestTryAdjust_HealthyIncrementAtCapacityReclaimsDamagedFirst(t *testing.T) {
	// GIVEN: a full partition with both damaged and lost copies
	// WHEN: incrementing healthy
	// THEN: the unit comes from damaged before lost
	got, changed := circulation.TryAdjust(4, counts(1, 2, 1), circulation.BucketHealthy, 1)
	if !changed || got != counts(2, 1, 1) {
		t.Errorf("got %+v changed=%v, want {2 1 1} changed=true", got, changed)
	}

	// Only lost copies remain to reclaim.
	got, changed = circulation.TryAdjust(3, counts(1, 0, 2), circulation.BucketHealthy, 1)
	if !changed || got != counts(2, 0, 1) {
		t.Errorf("got %+v changed=%v, want {2 0 1} changed=true", got, changed)
	}

	// Nothing to reclaim at all: rejected.
	_, changed = circulation.TryAdjust(3, counts(3, 0, 0), circulation.BucketHealthy, 1)
	if changed {
		t.Error("healthy increment at capacity with no damaged/lost should be rejected")
	}
}

func TestTryAdjust_UnderCapacityHealthyIncrementFillsShortfall(t *testing.T) {
	// A partition below total has headroom; the increment simply records a
	// previously unaccounted sound copy.
	got, changed := circulation.TryAdjust(5, counts(2, 1, 0), circulation.BucketHealthy, 1)

	if !changed {
		t.Fatal("expected the move to be accepted")
	}
	assertInvariant(t, 5, got)
	if got.Damaged != 1 || got.Lost != 0 {
		t.Errorf("damaged/lost must be untouched: got %+v", got)
	}
}

func TestTryAdjust_InvalidDeltaRejected(t *testing.T) {
	start := counts(1, 1, 1)
	for _, delta := range []int{0, 2, -2} {
		got, changed := circulation.TryAdjust(3, start, circulation.BucketDamaged, delta)
		if changed || got != start {
			t.Errorf("delta %d should be rejected", delta)
		}
	}
}

func TestTryAdjust_NeverViolatesInvariant(t *testing.T) {
	// Sweep small partitions and verify every accepted move keeps the
	// invariant and every rejection leaves the input untouched.
	buckets := []circulation.Bucket{
		circulation.BucketHealthy,
		circulation.BucketDamaged,
		circulation.BucketLost,
	}
	for total := 0; total <= 4; total++ {
		for h := 0; h <= total; h++ {
			for d := 0; d+h <= total; d++ {
				start := circulation.NormalizeCounts(total, counts(h, d, total-h-d))
				for _, bucket := range buckets {
					for _, delta := range []int{1, -1} {
						got, changed := circulation.TryAdjust(total, start, bucket, delta)
						if changed {
							assertInvariant(t, total, got)
						} else if got != start {
							t.Errorf("rejected move mutated counts: total=%d start=%+v bucket=%s delta=%d", total, start, bucket, delta)
						}
					}
				}
			}
		}
	}
}
