/*
selection.go - Borrow selection

PURPOSE:
  Given the books a staff member wants to lend and the target student,
  decide which are actually lendable right now. A book with no sound copies
  is never offered even when Quantity is positive, and a title this student
  already holds goes to the already-borrowed list instead of erroring out.

SEE ALSO:
  - limit.go: run after selection to check the borrow ceiling
*/
package circulation

// SelectionInput is one proposed borrow operation.
type SelectionInput struct {
	BooksToBorrow   []Book
	Loans           []LoanInfo
	StudentFullName string
	Student         *Student
}

// EvaluateSelection partitions the candidate books into available and
// already-borrowed. A book is borrowable only when it has on-shelf copies
// and at least one of them is sound; a borrowable book moves to the
// already-borrowed list when any ledger loan for it matches the student's
// candidate names. Both result lists preserve the input order, since
// callers render them directly.
func EvaluateSelection(in SelectionInput) BorrowSelection {
	selection := BorrowSelection{}
	if len(in.BooksToBorrow) == 0 {
		return selection
	}

	candidates := CandidateNames(in.StudentFullName, in.Student)
	borrowedBookIDs := make(map[string]struct{})
	for _, loan := range in.Loans {
		if loan.BookID == "" || loan.Borrower == "" {
			continue
		}
		if candidates.Contains(loan.Borrower) {
			borrowedBookIDs[loan.BookID] = struct{}{}
		}
	}

	for _, book := range in.BooksToBorrow {
		if !isBorrowable(book) {
			continue
		}
		if _, held := borrowedBookIDs[book.ID]; held && book.ID != "" {
			selection.AlreadyBorrowedBooks = append(selection.AlreadyBorrowedBooks, book)
		} else {
			selection.AvailableBooks = append(selection.AvailableBooks, book)
		}
	}

	return selection
}

// isBorrowable: on-shelf copies exist and at least one is sound. Damaged and
// lost copies cannot be lent.
func isBorrowable(book Book) bool {
	return book.Quantity > 0 && book.EffectiveHealthy() > 0
}
