package circulation_test

import (
	"testing"

	"github.com/kutuphane/circulation-engine/circulation"
)

func TestEvaluateBorrowLimit_DeletedBooksExcluded(t *testing.T) {
	// GIVEN: a student with 2 nominally-active loans, one referencing a book
	// that has since been deleted from the catalog
	student := &circulation.Student{Name: "Ayşe", Surname: "Yılmaz"}
	loans := []circulation.LoanInfo{
		{BookID: "b1", Borrower: "Ayşe Yılmaz"},
		{BookID: "deleted", Borrower: "Ayşe Yılmaz"},
	}
	books := []circulation.Book{{ID: "b1"}, {ID: "b2"}}

	// WHEN: evaluating the limit for 4 more books
	got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    "Ayşe Yılmaz",
		Student:            student,
		Loans:              loans,
		Books:              books,
		BooksToBorrowCount: 4,
		MaxBorrowLimit:     circulation.DefaultMaxBorrowLimit,
	})

	// THEN: the orphaned loan is excluded and the total stays inside the limit
	if got.ActiveLoanCount != 1 {
		t.Errorf("ActiveLoanCount = %d, want 1 (deleted book excluded)", got.ActiveLoanCount)
	}
	if got.TotalAfterBorrow != 5 {
		t.Errorf("TotalAfterBorrow = %d, want 5", got.TotalAfterBorrow)
	}
	if got.ExceedsLimit {
		t.Error("5 of 5 does not exceed the limit")
	}
	if len(got.MatchedLoans) != 1 || got.MatchedLoans[0].BookID != "b1" {
		t.Errorf("MatchedLoans = %+v, want the single live loan", got.MatchedLoans)
	}
}

func TestEvaluateBorrowLimit_ExceedsWithExcessCount(t *testing.T) {
	loans := []circulation.LoanInfo{
		{BookID: "b1", Borrower: "Ali Veli"},
		{BookID: "b2", Borrower: "ali veli"},
	}
	books := []circulation.Book{{ID: "b1"}, {ID: "b2"}}

	got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    "Ali Veli",
		Loans:              loans,
		Books:              books,
		BooksToBorrowCount: 5,
		MaxBorrowLimit:     5,
	})

	if !got.ExceedsLimit {
		t.Fatal("7 of 5 should exceed the limit")
	}
	if got.ExcessCount != 2 {
		t.Errorf("ExcessCount = %d, want 2", got.ExcessCount)
	}
}

func TestEvaluateBorrowLimit_Monotonicity(t *testing.T) {
	// Increasing the borrow count never decreases the total, and once the
	// limit is exceeded it stays exceeded.
	loans := []circulation.LoanInfo{{BookID: "b1", Borrower: "Ali Veli"}}
	books := []circulation.Book{{ID: "b1"}}

	prevTotal := -1
	exceededAt := -1
	for n := 0; n <= 10; n++ {
		got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
			StudentFullName:    "Ali Veli",
			Loans:              loans,
			Books:              books,
			BooksToBorrowCount: n,
			MaxBorrowLimit:     3,
		})
		if got.TotalAfterBorrow < prevTotal {
			t.Errorf("TotalAfterBorrow decreased at n=%d", n)
		}
		prevTotal = got.TotalAfterBorrow
		if got.ExceedsLimit && exceededAt == -1 {
			exceededAt = n
		}
		if exceededAt != -1 && n >= exceededAt && !got.ExceedsLimit {
			t.Errorf("ExceedsLimit flipped back to false at n=%d", n)
		}
	}
	if exceededAt == -1 {
		t.Error("limit was never exceeded in the sweep")
	}
}

func TestEvaluateBorrowLimit_EmptyCatalogSkipsCrossCheck(t *testing.T) {
	// Without a catalog there is no way to tell a deleted book from an
	// unloaded one, so every name-matched loan counts.
	loans := []circulation.LoanInfo{
		{BookID: "whatever", Borrower: "Ali Veli"},
	}

	got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    "Ali Veli",
		Loans:              loans,
		BooksToBorrowCount: 0,
		MaxBorrowLimit:     5,
	})

	if got.ActiveLoanCount != 1 {
		t.Errorf("ActiveLoanCount = %d, want 1 without catalog cross-check", got.ActiveLoanCount)
	}
}

func TestEvaluateBorrowLimit_NegativeInputsClamped(t *testing.T) {
	got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    "Ali Veli",
		BooksToBorrowCount: -3,
		MaxBorrowLimit:     -1,
	})

	if got.TotalAfterBorrow != 0 {
		t.Errorf("TotalAfterBorrow = %d, want 0", got.TotalAfterBorrow)
	}
	if got.ExceedsLimit {
		t.Error("0 of 0 does not exceed")
	}
}

func TestEvaluateBorrowLimit_OtherStudentsLoansIgnored(t *testing.T) {
	loans := []circulation.LoanInfo{
		{BookID: "b1", Borrower: "Fatma Yıldız"},
		{BookID: "b2", Borrower: ""},
	}
	books := []circulation.Book{{ID: "b1"}, {ID: "b2"}}

	got := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    "Ali Veli",
		Loans:              loans,
		Books:              books,
		BooksToBorrowCount: 1,
		MaxBorrowLimit:     5,
	})

	if got.ActiveLoanCount != 0 {
		t.Errorf("ActiveLoanCount = %d, want 0", got.ActiveLoanCount)
	}
}
