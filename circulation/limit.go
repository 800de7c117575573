/*
limit.go - Borrow limit evaluation

PURPOSE:
  Decides whether a prospective borrow would push a student over the
  configured active-loan ceiling, and produces the numbers the confirmation
  dialog shows. The result is advisory: it drives a two-step UI flow
  ("this exceeds the loan limit - proceed anyway?") and saves a round trip,
  but the server's own check remains authoritative.

ACTIVE LOANS:
  A student's active-loan count is the live ledger intersected with the live
  catalog: loans whose book has since been deleted are excluded. The cached
  borrowed/returned counters are historical totals and play no part here -
  that is exactly the staleness this engine exists to sidestep.
*/
package circulation

// LimitInput carries everything a limit evaluation needs. Books is the live
// catalog; when it is empty the catalog cross-check is skipped (no way to
// tell a deleted book from an unloaded catalog).
type LimitInput struct {
	StudentFullName    string
	Student            *Student
	Loans              []LoanInfo
	Books              []Book
	BooksToBorrowCount int
	MaxBorrowLimit     int
}

// EvaluateBorrowLimit computes the student's current valid active-loan count
// and whether lending BooksToBorrowCount more would exceed the limit.
func EvaluateBorrowLimit(in LimitInput) BorrowLimitResult {
	candidates := CandidateNames(in.StudentFullName, in.Student)
	matched := filterValidLoans(in.Loans, in.Books, candidates)

	booksToBorrow := in.BooksToBorrowCount
	if booksToBorrow < 0 {
		booksToBorrow = 0
	}
	limit := in.MaxBorrowLimit
	if limit < 0 {
		limit = 0
	}

	activeLoanCount := len(matched)
	totalAfterBorrow := activeLoanCount + booksToBorrow
	exceedsLimit := totalAfterBorrow > limit
	excessCount := 0
	if exceedsLimit {
		excessCount = totalAfterBorrow - limit
	}

	return BorrowLimitResult{
		ActiveLoanCount:  activeLoanCount,
		TotalAfterBorrow: totalAfterBorrow,
		ExceedsLimit:     exceedsLimit,
		ExcessCount:      excessCount,
		MatchedLoans:     matched,
	}
}

// filterValidLoans keeps the loans that match the candidate names and whose
// book still exists in the catalog.
func filterValidLoans(loans []LoanInfo, books []Book, candidates NameSet) []LoanInfo {
	if len(loans) == 0 || len(candidates) == 0 {
		return nil
	}

	var bookIDs map[string]struct{}
	if len(books) > 0 {
		bookIDs = make(map[string]struct{}, len(books))
		for _, book := range books {
			if book.ID != "" {
				bookIDs[book.ID] = struct{}{}
			}
		}
	}

	var matched []LoanInfo
	for _, loan := range loans {
		if loan.Borrower == "" {
			continue
		}
		if !candidates.Contains(loan.Borrower) {
			continue
		}
		if bookIDs != nil && loan.BookID != "" {
			if _, exists := bookIDs[loan.BookID]; !exists {
				continue
			}
		}
		matched = append(matched, loan)
	}
	return matched
}
