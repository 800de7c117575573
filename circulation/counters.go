/*
counters.go - Cached counter reconciliation

PURPOSE:
  A student's cached borrowed/returned counters are monotonic historical
  totals maintained server-side, and they drift: deleting a borrowed book
  orphans the cached count. This produces display-ready counters that never
  contradict the ledger-derived active-loan figure.

RULE:
  Returned stays as cached; borrowed is raised to at least
  returned + liveActiveLoans. Cached counters are a reporting floor and are
  never decreased, so borrowed-returned >= liveActiveLoans always holds.
*/
package circulation

// NormalizeCounters reconciles a student's cached counters against the live
// active-loan count. A nil student is treated as all-zero counters.
func NormalizeCounters(student *Student, activeLoans int) ReconciledCounters {
	if activeLoans < 0 {
		activeLoans = 0
	}

	var cachedBorrowed, cachedReturned int
	if student != nil {
		cachedBorrowed = max(student.Borrowed, 0)
		cachedReturned = max(student.Returned, 0)
	}

	borrowed := max(cachedBorrowed, cachedReturned+activeLoans)

	return ReconciledCounters{
		Borrowed: borrowed,
		Returned: cachedReturned,
	}
}
