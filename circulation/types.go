/*
Package circulation provides the lending-consistency engine.

PURPOSE:
  This package contains the pure decision functions that reconcile three
  independently-drifting data sources before any mutating call is made:
  a book's physical-condition inventory (healthy/damaged/lost copies), the
  live loan ledger (keyed by free-text borrower name), and cached per-student
  summary counters that may be stale relative to the ledger.

KEY CONCEPTS IN THIS FILE (types.go):
  - Book: catalog record with the healthy/damaged/lost condition partition
  - LoanEntry / LoanInfo: loan records, identified only by borrower name
  - Student: structured student record with cached counters
  - ConditionCounts: the three-way condition partition of a book's stock
  - BorrowSelection / BorrowLimitResult: derived decision values

DESIGN PRINCIPLES:
  1. Purity: every function is a pure function of its inputs; nothing here
     performs I/O or holds state between calls
  2. Recompute, don't cache: derived values are cheap to rebuild and caching
     them would reintroduce the staleness this engine exists to resolve
  3. Name-based identity: loans carry no foreign key; matching a loan to a
     student is normalized-name equality, isolated in name.go

SEE ALSO:
  - name.go: borrower name normalization and candidate sets
  - date.go: day-granularity date arithmetic
  - condition.go: condition partition invariants and adjustments
  - selection.go, limit.go, counters.go: the decision functions
*/
package circulation

import "time"

// =============================================================================
// CATALOG RECORDS
// =============================================================================

// Book is a catalog record. Quantity is the currently-on-shelf count;
// TotalQuantity is the authoritative total of physical copies. The three
// condition counts partition TotalQuantity once normalized.
type Book struct {
	ID            string
	Title         string
	Author        string
	Category      string
	Quantity      int
	TotalQuantity int
	HealthyCount  int
	DamagedCount  int
	LostCount     int
	Loans         []LoanEntry

	Shelf      string
	Publisher  string
	Summary    string
	BookNumber int
	Year       int
	PageCount  int

	LastPersonel string
}

// EffectiveHealthy returns the number of sound copies. Books imported before
// condition tracking carry no counts at all; for those every copy is sound.
func (b Book) EffectiveHealthy() int {
	if b.TotalQuantity == 0 && b.HealthyCount == 0 && b.DamagedCount == 0 && b.LostCount == 0 {
		return b.Quantity
	}
	return b.HealthyCount
}

// HasBorrower reports whether an active loan on this book matches the name.
func (b Book) HasBorrower(borrower string) bool {
	name := NormalizeName(borrower)
	if name == "" {
		return false
	}
	for _, loan := range b.Loans {
		if NormalizeName(loan.Borrower) == name {
			return true
		}
	}
	return false
}

// LoanEntry is an active loan stored on a book. There is no loan id; a loan
// is logically identified by (book, borrower, due date). Returning a loan
// deletes the entry ("extend" is modeled as return-then-reborrow).
type LoanEntry struct {
	Borrower string
	DueDate  time.Time
	Personel string
}

// LoanInfo is a loan flattened with its book for ledger-wide views.
type LoanInfo struct {
	BookID        string
	Title         string
	Author        string
	Category      string
	Borrower      string
	DueDate       time.Time
	RemainingDays int
	Personel      string
}

// Student is a structured student record. The cached Borrowed/Returned/Late
// counters are monotonic historical totals maintained server-side and may
// drift from the loan ledger (e.g. after a borrowed book is deleted).
// PenaltyPoints is an opaque server-owned value, only displayed here.
type Student struct {
	ID            string
	Name          string
	Surname       string
	StudentNumber int
	Class         int
	Branch        string
	Borrowed      int
	Returned      int
	Late          int
	PenaltyPoints int
	Banned        bool
}

// Settings is the library-wide circulation configuration.
type Settings struct {
	MaxBorrowLimit   int
	MaxPenaltyPoints int
}

// Defaults used whenever settings are unavailable.
const (
	DefaultMaxBorrowLimit   = 5
	DefaultMaxPenaltyPoints = 100
)

// DefaultSettings returns the fallback configuration.
func DefaultSettings() Settings {
	return Settings{
		MaxBorrowLimit:   DefaultMaxBorrowLimit,
		MaxPenaltyPoints: DefaultMaxPenaltyPoints,
	}
}

// =============================================================================
// DERIVED VALUES - recomputed on every evaluation, never cached
// =============================================================================

// BorrowSelection partitions one proposed borrow operation's candidate books
// into the lendable and the already-held. Both slices preserve input order.
type BorrowSelection struct {
	AvailableBooks       []Book
	AlreadyBorrowedBooks []Book
}

// BorrowLimitResult carries the numbers a confirmation dialog needs. It is
// advisory: the caller decides whether to ask for staff confirmation, and the
// server remains authoritative.
type BorrowLimitResult struct {
	ActiveLoanCount  int
	TotalAfterBorrow int
	ExceedsLimit     bool
	ExcessCount      int
	MatchedLoans     []LoanInfo
}

// ReconciledCounters is the display-ready borrowed/returned pair derived from
// a student's cached counters and the live active-loan count.
type ReconciledCounters struct {
	Borrowed int
	Returned int
}
