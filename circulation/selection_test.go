package circulation_test

import (
	"testing"
	"time"

	"github.com/kutuphane/circulation-engine/circulation"
)

func shelvedBook(id, title string, quantity, healthy int) circulation.Book {
	return circulation.Book{
		ID:            id,
		Title:         title,
		Quantity:      quantity,
		TotalQuantity: quantity + 1,
		HealthyCount:  healthy,
		DamagedCount:  0,
		LostCount:     quantity + 1 - healthy,
	}
}

func TestEvaluateSelection_PartitionsAvailableAndHeld(t *testing.T) {
	// GIVEN: three borrowable books, one of which the student already holds
	books := []circulation.Book{
		shelvedBook("b1", "Kürk Mantolu Madonna", 2, 2),
		shelvedBook("b2", "Tutunamayanlar", 1, 1),
		shelvedBook("b3", "İnce Memed", 3, 3),
	}
	loans := []circulation.LoanInfo{
		{BookID: "b2", Borrower: "AYŞE YILMAZ", DueDate: time.Now().AddDate(0, 0, 7)},
	}

	// WHEN: evaluating the selection for that student
	got := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   books,
		Loans:           loans,
		StudentFullName: "Ayşe Yılmaz",
		Student:         &circulation.Student{Name: "Ayşe", Surname: "Yılmaz"},
	})

	// THEN: the held title is excluded, the rest stay in input order
	if len(got.AvailableBooks) != 2 || len(got.AlreadyBorrowedBooks) != 1 {
		t.Fatalf("got %d available / %d held, want 2 / 1",
			len(got.AvailableBooks), len(got.AlreadyBorrowedBooks))
	}
	if got.AvailableBooks[0].ID != "b1" || got.AvailableBooks[1].ID != "b3" {
		t.Errorf("available order = [%s %s], want [b1 b3]",
			got.AvailableBooks[0].ID, got.AvailableBooks[1].ID)
	}
	if got.AlreadyBorrowedBooks[0].ID != "b2" {
		t.Errorf("held book = %s, want b2", got.AlreadyBorrowedBooks[0].ID)
	}
}

func TestEvaluateSelection_ExclusivityAndUnion(t *testing.T) {
	books := []circulation.Book{
		shelvedBook("b1", "A", 1, 1),
		shelvedBook("b2", "B", 1, 1),
		shelvedBook("b3", "C", 0, 1), // nothing on shelf: dropped entirely
	}
	loans := []circulation.LoanInfo{
		{BookID: "b1", Borrower: "Ali Veli"},
	}

	got := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   books,
		Loans:           loans,
		StudentFullName: "Ali Veli",
	})

	seen := make(map[string]int)
	for _, b := range got.AvailableBooks {
		seen[b.ID]++
	}
	for _, b := range got.AlreadyBorrowedBooks {
		seen[b.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("book %s appears in both result lists", id)
		}
	}
	if len(got.AvailableBooks)+len(got.AlreadyBorrowedBooks) != 2 {
		t.Errorf("union size = %d, want 2 (borrowable-filtered input)",
			len(got.AvailableBooks)+len(got.AlreadyBorrowedBooks))
	}
}

func TestEvaluateSelection_NoSoundCopiesNeverOffered(t *testing.T) {
	// Quantity is positive but every remaining copy is damaged or lost.
	book := circulation.Book{
		ID: "b1", Quantity: 2, TotalQuantity: 2,
		HealthyCount: 0, DamagedCount: 1, LostCount: 1,
	}

	got := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   []circulation.Book{book},
		StudentFullName: "Ali Veli",
	})

	if len(got.AvailableBooks) != 0 || len(got.AlreadyBorrowedBooks) != 0 {
		t.Errorf("book with zero sound copies must be dropped, got %+v", got)
	}
}

func TestEvaluateSelection_LegacyBookWithoutConditionCounts(t *testing.T) {
	// Books imported before condition tracking have no counts at all; every
	// on-shelf copy counts as sound.
	book := circulation.Book{ID: "old", Quantity: 1}

	got := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   []circulation.Book{book},
		StudentFullName: "Ali Veli",
	})

	if len(got.AvailableBooks) != 1 {
		t.Errorf("legacy book should be borrowable, got %+v", got)
	}
}

func TestEvaluateSelection_SurnameOnlyLoanRecordMatches(t *testing.T) {
	// Staff sometimes entered only the surname on old loan records.
	books := []circulation.Book{shelvedBook("b1", "A", 1, 1)}
	loans := []circulation.LoanInfo{{BookID: "b1", Borrower: "Yılmaz"}}

	got := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   books,
		Loans:           loans,
		StudentFullName: "Ayşe Yılmaz",
		Student:         &circulation.Student{Name: "Ayşe", Surname: "Yılmaz"},
	})

	if len(got.AlreadyBorrowedBooks) != 1 {
		t.Errorf("surname-only loan record should match the student, got %+v", got)
	}
}

func TestEvaluateSelection_EmptyInput(t *testing.T) {
	got := circulation.EvaluateSelection(circulation.SelectionInput{})
	if len(got.AvailableBooks) != 0 || len(got.AlreadyBorrowedBooks) != 0 {
		t.Errorf("empty input should produce empty selection, got %+v", got)
	}
}
