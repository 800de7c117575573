/*
service.go - Catalog operations (borrow, return, condition, settings)

PURPOSE:
  The mutating counterpart of the pure circulation engine. Every operation
  here follows the same shape: load current state, let the engine validate
  or normalize, persist the result. Evaluations made before a mutation must
  not be reused after it - callers re-fetch and re-evaluate.

NON-TRANSACTIONAL BOUNDARY:
  A multi-book borrow is one call per book, sequentially. A failure partway
  leaves a partially-completed state; the caller re-queries rather than
  assuming, exactly as with the remote API this replaces.

SEE ALSO:
  - circulation: the decision functions used for validation
  - store.go: the persistence interface
*/
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kutuphane/circulation-engine/circulation"
)

// Service implements the catalog operations on top of a Store.
type Service struct {
	store Store

	// Now is the clock used for due dates and late-day computation.
	// Overridable in tests.
	Now func() time.Time
}

// NewService creates a catalog service.
func NewService(store Store) *Service {
	return &Service{store: store, Now: time.Now}
}

// =============================================================================
// BOOK REGISTRATION AND EDITING
// =============================================================================

// RegisterBookInput carries the fields for a new book.
type RegisterBookInput struct {
	Title        string
	Author       string
	Category     string
	Quantity     int
	HealthyCount *int
	DamagedCount *int
	LostCount    *int
	Shelf        string
	Publisher    string
	Summary      string
	BookNumber   int
	Year         int
	PageCount    int
}

// RegisterBook creates a new book. Quantity must be positive; the condition
// partition is normalized so that it sums to the total from day one.
func (s *Service) RegisterBook(ctx context.Context, in RegisterBookInput) (*circulation.Book, error) {
	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	category := strings.TrimSpace(in.Category)
	if title == "" || author == "" || category == "" {
		return nil, ErrBlankField
	}
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	counts := circulation.ConditionCounts{Healthy: in.Quantity}
	if in.HealthyCount != nil || in.DamagedCount != nil || in.LostCount != nil {
		counts = circulation.ConditionCounts{
			Healthy: intOr(in.HealthyCount, in.Quantity),
			Damaged: intOr(in.DamagedCount, 0),
			Lost:    intOr(in.LostCount, 0),
		}
	}
	counts = circulation.NormalizeCounts(in.Quantity, counts)

	book := circulation.Book{
		ID:            uuid.NewString(),
		Title:         title,
		Author:        author,
		Category:      category,
		Quantity:      in.Quantity,
		TotalQuantity: in.Quantity,
		HealthyCount:  counts.Healthy,
		DamagedCount:  counts.Damaged,
		LostCount:     counts.Lost,
		Shelf:         strings.TrimSpace(in.Shelf),
		Publisher:     strings.TrimSpace(in.Publisher),
		Summary:       strings.TrimSpace(in.Summary),
		BookNumber:    in.BookNumber,
		Year:          in.Year,
		PageCount:     in.PageCount,
	}

	if err := s.store.SaveBook(ctx, book); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBookInput carries partial edits; nil fields keep the current value.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Category      *string
	TotalQuantity *int
	HealthyCount  *int
	DamagedCount  *int
	LostCount     *int
	Shelf         *string
	Publisher     *string
	Summary       *string
	BookNumber    *int
	Year          *int
	PageCount     *int
}

// UpdateBook edits a book while keeping the circulation state consistent:
// the total can never drop below the active loan count, the condition
// partition is re-normalized against the new total, and the on-shelf
// quantity is recomputed as sound copies minus active loans.
func (s *Service) UpdateBook(ctx context.Context, bookID string, in UpdateBookInput) (*circulation.Book, error) {
	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	newTotal := book.TotalQuantity
	if in.TotalQuantity != nil && *in.TotalQuantity > 0 {
		newTotal = *in.TotalQuantity
	}
	activeLoans := len(book.Loans)
	if newTotal < activeLoans {
		newTotal = activeLoans
	}

	counts := circulation.NormalizeCounts(newTotal, circulation.ConditionCounts{
		Healthy: intOr(in.HealthyCount, book.HealthyCount),
		Damaged: intOr(in.DamagedCount, book.DamagedCount),
		Lost:    intOr(in.LostCount, book.LostCount),
	})

	book.Title = stringOr(in.Title, book.Title)
	book.Author = stringOr(in.Author, book.Author)
	book.Category = stringOr(in.Category, book.Category)
	book.Shelf = stringOr(in.Shelf, book.Shelf)
	book.Publisher = stringOr(in.Publisher, book.Publisher)
	book.Summary = stringOr(in.Summary, book.Summary)
	book.BookNumber = intOr(in.BookNumber, book.BookNumber)
	book.Year = intOr(in.Year, book.Year)
	book.PageCount = intOr(in.PageCount, book.PageCount)

	book.TotalQuantity = newTotal
	book.HealthyCount = counts.Healthy
	book.DamagedCount = counts.Damaged
	book.LostCount = counts.Lost
	book.Quantity = max(0, counts.Healthy-activeLoans)

	if err := s.store.SaveBook(ctx, *book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book. Its active loans vanish with it, so each one is
// taken back out of the matched student's cached counters first; loans whose
// borrower matches no student simply disappear and the circulation engine
// excludes them from active-loan counts.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return err
	}

	now := s.Now()
	for _, loan := range book.Loans {
		student, err := s.matchStudent(ctx, loan.Borrower)
		if err != nil {
			return err
		}
		if student == nil {
			continue
		}
		student.Borrowed = max(0, student.Borrowed-1)
		if circulation.IsOverdue(loan.DueDate, now) {
			student.Late = max(0, student.Late-1)
		}
		if err := s.store.SaveStudent(ctx, *student); err != nil {
			return err
		}
	}

	return s.store.DeleteBook(ctx, bookID)
}

// =============================================================================
// BORROW / RETURN
// =============================================================================

// Borrow lends one copy to the named borrower for the given number of days.
// Hard rules only: a sound copy must exist and the same borrower must not
// already hold the title. The borrow-limit ceiling is advisory and checked
// separately via CheckBorrow.
func (s *Service) Borrow(ctx context.Context, bookID, borrower string, days int, personel string) (*circulation.Book, error) {
	borrowerName := strings.TrimSpace(borrower)
	personelName := strings.TrimSpace(personel)
	if borrowerName == "" || personelName == "" {
		return nil, ErrBlankField
	}
	if days <= 0 {
		return nil, ErrInvalidDays
	}

	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.HasBorrower(borrowerName) {
		return nil, ErrAlreadyBorrowed
	}
	if book.EffectiveHealthy() <= 0 {
		return nil, ErrNoHealthyCopies
	}

	student, err := s.matchStudent(ctx, borrowerName)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entry := circulation.LoanEntry{
		Borrower: borrowerName,
		DueDate:  now.AddDate(0, 0, days),
		Personel: personelName,
	}
	book.Loans = append(book.Loans, entry)
	book.Quantity = max(0, book.Quantity-1)
	book.HealthyCount = max(0, book.HealthyCount-1)
	book.LastPersonel = personelName

	if err := s.store.SaveBook(ctx, *book); err != nil {
		return nil, err
	}

	history := HistoryEntry{
		ID:             uuid.NewString(),
		BookID:         book.ID,
		BookTitle:      book.Title,
		BookAuthor:     book.Author,
		BookCategory:   book.Category,
		Borrower:       borrowerName,
		BorrowedAt:     now,
		DueDate:        entry.DueDate,
		LoanDays:       days,
		BorrowPersonel: personelName,
		Status:         HistoryActive,
	}
	if student != nil {
		history.StudentNumber = student.StudentNumber
	}
	if err := s.store.AppendHistory(ctx, history); err != nil {
		return nil, err
	}

	// The cached counter follows the mutation; reconciliation on read only
	// repairs rows this path never touched.
	if student != nil {
		student.Borrowed++
		if err := s.store.SaveStudent(ctx, *student); err != nil {
			return nil, err
		}
	}

	return book, nil
}

// Return takes back the named borrower's copy. The borrower may be omitted
// only when the book has exactly one active loan. The loan entry is deleted;
// the history log keeps the durable record.
func (s *Service) Return(ctx context.Context, bookID, borrower, personel string) (*circulation.Book, error) {
	personelName := strings.TrimSpace(personel)
	if personelName == "" {
		return nil, ErrBlankField
	}

	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if len(book.Loans) == 0 {
		return nil, ErrNothingToReturn
	}

	targetIndex := -1
	if name := circulation.NormalizeName(borrower); name != "" {
		for i, loan := range book.Loans {
			if circulation.NormalizeName(loan.Borrower) == name {
				targetIndex = i
				break
			}
		}
		if targetIndex < 0 {
			return nil, ErrLoanNotFound
		}
	} else {
		if len(book.Loans) != 1 {
			return nil, ErrAmbiguousReturn
		}
		targetIndex = 0
	}

	loan := book.Loans[targetIndex]
	book.Loans = append(book.Loans[:targetIndex], book.Loans[targetIndex+1:]...)
	book.Quantity = min(book.TotalQuantity, book.Quantity+1)
	// The copy comes back sound; a damaged return is recorded separately as
	// a condition adjustment.
	book.HealthyCount = min(book.TotalQuantity-book.DamagedCount-book.LostCount, book.HealthyCount+1)
	book.LastPersonel = personelName

	if err := s.store.SaveBook(ctx, *book); err != nil {
		return nil, err
	}

	now := s.Now()
	lateDays := circulation.LateDays(loan.DueDate, now)
	ret := HistoryReturn{
		ReturnedAt: now,
		WasLate:    lateDays > 0,
		LateDays:   lateDays,
		Personel:   personelName,
	}
	if err := s.store.CompleteHistory(ctx, book.ID, loan.Borrower, ret); err != nil {
		return nil, err
	}

	student, err := s.matchStudent(ctx, loan.Borrower)
	if err != nil {
		return nil, err
	}
	if student != nil {
		student.Returned++
		if lateDays > 0 {
			student.Late++
		}
		if err := s.store.SaveStudent(ctx, *student); err != nil {
			return nil, err
		}
	}

	return book, nil
}

// RemoveLoansByBorrower deletes every active loan held by the borrower
// across all books, restoring the on-shelf quantities. Used when a student
// record is deleted, to avoid orphaned loan rows. Returns how many loans
// were removed.
func (s *Service) RemoveLoansByBorrower(ctx context.Context, borrower string) (int, error) {
	name := circulation.NormalizeName(borrower)
	if name == "" {
		return 0, nil
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, book := range books {
		kept := book.Loans[:0:0]
		for _, loan := range book.Loans {
			if circulation.NormalizeName(loan.Borrower) == name {
				continue
			}
			kept = append(kept, loan)
		}
		dropped := len(book.Loans) - len(kept)
		if dropped == 0 {
			continue
		}

		book.Loans = kept
		book.Quantity = min(book.TotalQuantity, book.Quantity+dropped)
		if err := s.store.SaveBook(ctx, book); err != nil {
			return removed, err
		}
		removed += dropped
	}

	return removed, nil
}

// DeleteStudent removes the student record and cleans up their loans.
func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil {
		return ErrStudentNotFound
	}

	if err := s.store.DeleteStudent(ctx, studentID); err != nil {
		return err
	}

	_, err = s.RemoveLoansByBorrower(ctx, circulation.FullName(student.Name, student.Surname))
	return err
}

// =============================================================================
// CONDITION
// =============================================================================

// UpdateCondition replaces a book's condition partition. The total can never
// drop below the active loan count; the partition is normalized and the
// on-shelf quantity recomputed as sound copies minus active loans.
func (s *Service) UpdateCondition(ctx context.Context, bookID string, total int, counts circulation.ConditionCounts, personel string) (*circulation.Book, error) {
	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if total <= 0 {
		total = book.TotalQuantity
	}
	activeLoans := len(book.Loans)
	if total < activeLoans {
		total = activeLoans
	}

	normalized := circulation.NormalizeCounts(total, counts)
	book.TotalQuantity = total
	book.HealthyCount = normalized.Healthy
	book.DamagedCount = normalized.Damaged
	book.LostCount = normalized.Lost
	book.Quantity = max(0, normalized.Healthy-activeLoans)
	if p := strings.TrimSpace(personel); p != "" {
		book.LastPersonel = p
	}

	if err := s.store.SaveBook(ctx, *book); err != nil {
		return nil, err
	}
	return book, nil
}

// AdjustCondition applies a single-unit condition move. The false return is
// a normal negative result (invalid move), not an error; the book is only
// persisted when the move is accepted.
func (s *Service) AdjustCondition(ctx context.Context, bookID string, bucket circulation.Bucket, delta int) (*circulation.Book, bool, error) {
	book, err := s.requireBook(ctx, bookID)
	if err != nil {
		return nil, false, err
	}

	counts := circulation.ConditionCounts{
		Healthy: book.HealthyCount,
		Damaged: book.DamagedCount,
		Lost:    book.LostCount,
	}
	next, changed := circulation.TryAdjust(book.TotalQuantity, counts, bucket, delta)
	if !changed {
		return book, false, nil
	}

	book.HealthyCount = next.Healthy
	book.DamagedCount = next.Damaged
	book.LostCount = next.Lost
	book.Quantity = max(0, next.Healthy-len(book.Loans))

	if err := s.store.SaveBook(ctx, *book); err != nil {
		return nil, false, err
	}
	return book, true, nil
}

// =============================================================================
// EVALUATION AND OVERVIEW
// =============================================================================

// LoanOverview flattens every active loan with its book. RemainingDays is
// signed: negative means overdue.
func (s *Service) LoanOverview(ctx context.Context) ([]circulation.LoanInfo, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	var loans []circulation.LoanInfo
	for _, book := range books {
		for _, entry := range book.Loans {
			personel := entry.Personel
			if personel == "" {
				personel = book.LastPersonel
			}
			loans = append(loans, circulation.LoanInfo{
				BookID:        book.ID,
				Title:         book.Title,
				Author:        book.Author,
				Category:      book.Category,
				Borrower:      entry.Borrower,
				DueDate:       entry.DueDate,
				RemainingDays: circulation.DaysUntil(entry.DueDate, now),
				Personel:      personel,
			})
		}
	}
	return loans, nil
}

// BorrowCheck is the advisory pre-flight for a proposed borrow: which of the
// requested books are lendable, and whether lending them exceeds the limit.
type BorrowCheck struct {
	Selection circulation.BorrowSelection
	Limit     circulation.BorrowLimitResult
	Settings  circulation.Settings
}

// CheckBorrow evaluates a proposed borrow for a student against the live
// ledger and catalog. Purely advisory: nothing is persisted, and the result
// is a snapshot that must be re-evaluated after any mutation.
func (s *Service) CheckBorrow(ctx context.Context, studentID string, bookIDs []string) (*BorrowCheck, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.LoanOverview(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]circulation.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	var toBorrow []circulation.Book
	for _, id := range bookIDs {
		if b, ok := byID[id]; ok {
			toBorrow = append(toBorrow, b)
		}
	}

	fullName := circulation.FullName(student.Name, student.Surname)
	selection := circulation.EvaluateSelection(circulation.SelectionInput{
		BooksToBorrow:   toBorrow,
		Loans:           loans,
		StudentFullName: fullName,
		Student:         student,
	})
	limit := circulation.EvaluateBorrowLimit(circulation.LimitInput{
		StudentFullName:    fullName,
		Student:            student,
		Loans:              loans,
		Books:              books,
		BooksToBorrowCount: len(selection.AvailableBooks),
		MaxBorrowLimit:     settings.MaxBorrowLimit,
	})

	return &BorrowCheck{Selection: selection, Limit: limit, Settings: settings}, nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the stored configuration, falling back to defaults
// when nothing is stored.
func (s *Service) GetSettings(ctx context.Context) (circulation.Settings, error) {
	stored, err := s.store.GetSettings(ctx)
	if err != nil {
		return circulation.Settings{}, err
	}
	if stored == nil {
		return circulation.DefaultSettings(), nil
	}

	settings := *stored
	if settings.MaxBorrowLimit < 1 {
		settings.MaxBorrowLimit = circulation.DefaultMaxBorrowLimit
	}
	if settings.MaxPenaltyPoints < 1 {
		settings.MaxPenaltyPoints = circulation.DefaultMaxPenaltyPoints
	}
	return settings, nil
}

// UpdateSettings validates and stores the configuration.
func (s *Service) UpdateSettings(ctx context.Context, settings circulation.Settings) error {
	if settings.MaxBorrowLimit < 1 || settings.MaxPenaltyPoints < 1 {
		return ErrInvalidSettings
	}
	return s.store.SaveSettings(ctx, settings)
}

// =============================================================================
// HELPERS
// =============================================================================

// matchStudent resolves a free-text borrower name to a registered student,
// tolerating the surface forms staff enter. Nil when nobody matches, which
// is not an error: loans for unregistered borrowers are still valid.
func (s *Service) matchStudent(ctx context.Context, borrower string) (*circulation.Student, error) {
	if circulation.NormalizeName(borrower) == "" {
		return nil, nil
	}
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		st := &students[i]
		names := circulation.CandidateNames(circulation.FullName(st.Name, st.Surname), st)
		if names.Contains(borrower) {
			return st, nil
		}
	}
	return nil, nil
}

func (s *Service) requireBook(ctx context.Context, bookID string) (*circulation.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	return book, nil
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func stringOr(v *string, fallback string) string {
	if v != nil {
		return strings.TrimSpace(*v)
	}
	return fallback
}
