/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Books:
    BookDTO, LoanEntryDTO, CreateBookRequest, UpdateBookRequest

  Circulation:
    BorrowRequest, ReturnRequest, ConditionRequest, AdjustConditionRequest,
    BorrowCheckRequest, BorrowCheckDTO

  Students:
    StudentDTO, CreateStudentRequest

  History:
    StudentHistoryDTO, BookHistoryDTO, HistoryEntryDTO

VALIDATION:
  Validation is done in handlers and the catalog service, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - catalog/service.go: The operations behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kutuphane/circulation-engine/catalog"
	"github.com/kutuphane/circulation-engine/circulation"
	"github.com/kutuphane/circulation-engine/stats"
)

// =============================================================================
// BOOK TYPES
// =============================================================================

// LoanEntryDTO is an active loan on a book.
type LoanEntryDTO struct {
	Borrower string    `json:"borrower"`
	DueDate  time.Time `json:"dueDate"`
	Personel string    `json:"personel,omitempty"`
}

// BookDTO represents a book in API responses.
type BookDTO struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Category      string         `json:"category"`
	Quantity      int            `json:"quantity"`
	TotalQuantity int            `json:"totalQuantity"`
	HealthyCount  int            `json:"healthyCount"`
	DamagedCount  int            `json:"damagedCount"`
	LostCount     int            `json:"lostCount"`
	Loans         []LoanEntryDTO `json:"loans"`
	Shelf         string         `json:"shelf,omitempty"`
	Publisher     string         `json:"publisher,omitempty"`
	Summary       string         `json:"summary,omitempty"`
	BookNumber    int            `json:"bookNumber,omitempty"`
	Year          int            `json:"year,omitempty"`
	PageCount     int            `json:"pageCount,omitempty"`
	LastPersonel  string         `json:"lastPersonel,omitempty"`
}

// CreateBookRequest is the body for registering a new book.
type CreateBookRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Category     string `json:"category"`
	Quantity     int    `json:"quantity"`
	HealthyCount *int   `json:"healthyCount,omitempty"`
	DamagedCount *int   `json:"damagedCount,omitempty"`
	LostCount    *int   `json:"lostCount,omitempty"`
	Shelf        string `json:"shelf,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	Summary      string `json:"summary,omitempty"`
	BookNumber   int    `json:"bookNumber,omitempty"`
	Year         int    `json:"year,omitempty"`
	PageCount    int    `json:"pageCount,omitempty"`
}

// UpdateBookRequest is the body for editing a book. Absent fields keep
// their current values.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	Category      *string `json:"category,omitempty"`
	TotalQuantity *int    `json:"totalQuantity,omitempty"`
	HealthyCount  *int    `json:"healthyCount,omitempty"`
	DamagedCount  *int    `json:"damagedCount,omitempty"`
	LostCount     *int    `json:"lostCount,omitempty"`
	Shelf         *string `json:"shelf,omitempty"`
	Publisher     *string `json:"publisher,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	BookNumber    *int    `json:"bookNumber,omitempty"`
	Year          *int    `json:"year,omitempty"`
	PageCount     *int    `json:"pageCount,omitempty"`
}

// =============================================================================
// CIRCULATION TYPES
// =============================================================================

// BorrowRequest is the body for lending a copy.
type BorrowRequest struct {
	Borrower string `json:"borrower"`
	Days     int    `json:"days"`
	Personel string `json:"personel"`
}

// ReturnRequest is the body for taking a copy back. Borrower may be omitted
// when the book has exactly one active loan.
type ReturnRequest struct {
	Borrower string `json:"borrower,omitempty"`
	Personel string `json:"personel"`
}

// ConditionRequest replaces a book's condition partition.
type ConditionRequest struct {
	TotalQuantity int    `json:"totalQuantity"`
	HealthyCount  int    `json:"healthyCount"`
	DamagedCount  int    `json:"damagedCount"`
	LostCount     int    `json:"lostCount"`
	Personel      string `json:"personel,omitempty"`
}

// AdjustConditionRequest moves a single copy between condition buckets.
// Bucket is one of "healthy", "damaged", "lost"; delta is +1 or -1.
type AdjustConditionRequest struct {
	Bucket string `json:"bucket"`
	Delta  int    `json:"delta"`
}

// AdjustConditionDTO reports whether the move was applied.
type AdjustConditionDTO struct {
	Changed bool    `json:"changed"`
	Book    BookDTO `json:"book"`
}

// BorrowCheckRequest asks for an advisory evaluation of a proposed borrow.
type BorrowCheckRequest struct {
	StudentID string   `json:"studentId"`
	BookIDs   []string `json:"bookIds"`
}

// BorrowCheckDTO is the advisory evaluation result.
type BorrowCheckDTO struct {
	AvailableBooks       []BookDTO   `json:"availableBooks"`
	AlreadyBorrowedBooks []BookDTO   `json:"alreadyBorrowedBooks"`
	ActiveLoanCount      int         `json:"activeLoanCount"`
	TotalAfterBorrow     int         `json:"totalAfterBorrow"`
	ExceedsLimit         bool        `json:"exceedsLimit"`
	ExcessCount          int         `json:"excessCount"`
	MaxBorrowLimit       int         `json:"maxBorrowLimit"`
	MatchedLoans         []LoanDTO   `json:"matchedLoans"`
	Settings             SettingsDTO `json:"settings"`
}

// LoanDTO is one row of the loan overview. RemainingDays is signed:
// negative means overdue.
type LoanDTO struct {
	BookID        string    `json:"bookId"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Category      string    `json:"category"`
	Borrower      string    `json:"borrower"`
	DueDate       time.Time `json:"dueDate"`
	RemainingDays int       `json:"remainingDays"`
	Personel      string    `json:"personel,omitempty"`
}

// =============================================================================
// STUDENT TYPES
// =============================================================================

// StudentDTO represents a student with reconciled circulation counters:
// borrowed/returned are the display values after counter reconciliation,
// activeLoans and lateLoans come from the live ledger.
type StudentDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	StudentNumber int    `json:"studentNumber,omitempty"`
	Class         int    `json:"class,omitempty"`
	Branch        string `json:"branch,omitempty"`
	Borrowed      int    `json:"borrowed"`
	Returned      int    `json:"returned"`
	Late          int    `json:"late"`
	ActiveLoans   int    `json:"activeLoans"`
	LateLoans     int    `json:"lateLoans"`
	PenaltyPoints int    `json:"penaltyPoints"`
	Banned        bool   `json:"banned"`
}

// CreateStudentRequest is the body for registering a student.
type CreateStudentRequest struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	StudentNumber int    `json:"studentNumber,omitempty"`
	Class         int    `json:"class,omitempty"`
	Branch        string `json:"branch,omitempty"`
}

// SettingsDTO is the library-wide circulation configuration.
type SettingsDTO struct {
	MaxBorrowLimit   int `json:"maxBorrowLimit"`
	MaxPenaltyPoints int `json:"maxPenaltyPoints"`
}

// =============================================================================
// HISTORY TYPES
// =============================================================================

// HistoryEntryDTO is one borrow (and its eventual return) in history views.
type HistoryEntryDTO struct {
	BookID         string     `json:"bookId"`
	BookTitle      string     `json:"bookTitle"`
	BookAuthor     string     `json:"bookAuthor,omitempty"`
	BookCategory   string     `json:"bookCategory,omitempty"`
	Borrower       string     `json:"borrower"`
	StudentNumber  int        `json:"studentNumber,omitempty"`
	BorrowedAt     time.Time  `json:"borrowedAt"`
	DueDate        time.Time  `json:"dueDate"`
	LoanDays       int        `json:"loanDays"`
	ReturnedAt     *time.Time `json:"returnedAt,omitempty"`
	WasLate        bool       `json:"wasLate"`
	LateDays       int        `json:"lateDays"`
	BorrowPersonel string     `json:"borrowPersonel,omitempty"`
	ReturnPersonel string     `json:"returnPersonel,omitempty"`
	Status         string     `json:"status"`
}

// StudentBookSummaryDTO is one title's rollup in a student's history.
type StudentBookSummaryDTO struct {
	BookID            string           `json:"bookId"`
	BookTitle         string           `json:"bookTitle"`
	BookAuthor        string           `json:"bookAuthor,omitempty"`
	BookCategory      string           `json:"bookCategory,omitempty"`
	BorrowCount       int              `json:"borrowCount"`
	ReturnCount       int              `json:"returnCount"`
	LateCount         int              `json:"lateCount"`
	AverageReturnDays *decimal.Decimal `json:"averageReturnDays,omitempty"`
	TotalLateDays     int              `json:"totalLateDays"`
	LastBorrowedAt    time.Time        `json:"lastBorrowedAt"`
}

// StudentHistoryDTO is a student's complete borrowing record.
type StudentHistoryDTO struct {
	Name          string                  `json:"name"`
	Surname       string                  `json:"surname"`
	TotalBorrowed int                     `json:"totalBorrowed"`
	TotalReturned int                     `json:"totalReturned"`
	ActiveLoans   int                     `json:"activeLoans"`
	LateReturns   int                     `json:"lateReturns"`
	Books         []StudentBookSummaryDTO `json:"books"`
	Entries       []HistoryEntryDTO       `json:"entries"`
}

// BorrowerSummaryDTO is one borrower's rollup in a book's history.
type BorrowerSummaryDTO struct {
	Borrower          string           `json:"borrower"`
	StudentNumber     int              `json:"studentNumber,omitempty"`
	BorrowCount       int              `json:"borrowCount"`
	ReturnCount       int              `json:"returnCount"`
	LateCount         int              `json:"lateCount"`
	LastBorrowedAt    time.Time        `json:"lastBorrowedAt"`
	AverageReturnDays *decimal.Decimal `json:"averageReturnDays,omitempty"`
}

// BookHistoryDTO is a title's complete lending record.
type BookHistoryDTO struct {
	BookID        string               `json:"bookId"`
	Title         string               `json:"title"`
	Author        string               `json:"author"`
	Category      string               `json:"category,omitempty"`
	TotalBorrowed int                  `json:"totalBorrowed"`
	TotalReturned int                  `json:"totalReturned"`
	ActiveLoans   int                  `json:"activeLoans"`
	LateReturns   int                  `json:"lateReturns"`
	Borrowers     []BorrowerSummaryDTO `json:"borrowers"`
	Entries       []HistoryEntryDTO    `json:"entries"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toBookDTO(b circulation.Book) BookDTO {
	loans := make([]LoanEntryDTO, len(b.Loans))
	for i, l := range b.Loans {
		loans[i] = LoanEntryDTO{Borrower: l.Borrower, DueDate: l.DueDate, Personel: l.Personel}
	}
	return BookDTO{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Category:      b.Category,
		Quantity:      b.Quantity,
		TotalQuantity: b.TotalQuantity,
		HealthyCount:  b.HealthyCount,
		DamagedCount:  b.DamagedCount,
		LostCount:     b.LostCount,
		Loans:         loans,
		Shelf:         b.Shelf,
		Publisher:     b.Publisher,
		Summary:       b.Summary,
		BookNumber:    b.BookNumber,
		Year:          b.Year,
		PageCount:     b.PageCount,
		LastPersonel:  b.LastPersonel,
	}
}

func toBookDTOs(books []circulation.Book) []BookDTO {
	dtos := make([]BookDTO, len(books))
	for i, b := range books {
		dtos[i] = toBookDTO(b)
	}
	return dtos
}

func toLoanDTOs(loans []circulation.LoanInfo) []LoanDTO {
	dtos := make([]LoanDTO, len(loans))
	for i, l := range loans {
		dtos[i] = LoanDTO{
			BookID:        l.BookID,
			Title:         l.Title,
			Author:        l.Author,
			Category:      l.Category,
			Borrower:      l.Borrower,
			DueDate:       l.DueDate,
			RemainingDays: l.RemainingDays,
			Personel:      l.Personel,
		}
	}
	return dtos
}

func toHistoryEntryDTOs(entries []catalog.HistoryEntry) []HistoryEntryDTO {
	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dto := HistoryEntryDTO{
			BookID:         e.BookID,
			BookTitle:      e.BookTitle,
			BookAuthor:     e.BookAuthor,
			BookCategory:   e.BookCategory,
			Borrower:       e.Borrower,
			StudentNumber:  e.StudentNumber,
			BorrowedAt:     e.BorrowedAt,
			DueDate:        e.DueDate,
			LoanDays:       e.LoanDays,
			WasLate:        e.WasLate,
			LateDays:       e.LateDays,
			BorrowPersonel: e.BorrowPersonel,
			ReturnPersonel: e.ReturnPersonel,
			Status:         e.Status,
		}
		if !e.ReturnedAt.IsZero() {
			t := e.ReturnedAt
			dto.ReturnedAt = &t
		}
		dtos[i] = dto
	}
	return dtos
}

func toStudentHistoryDTO(h stats.StudentHistory) StudentHistoryDTO {
	books := make([]StudentBookSummaryDTO, len(h.Books))
	for i, b := range h.Books {
		books[i] = StudentBookSummaryDTO{
			BookID:            b.BookID,
			BookTitle:         b.BookTitle,
			BookAuthor:        b.BookAuthor,
			BookCategory:      b.BookCategory,
			BorrowCount:       b.BorrowCount,
			ReturnCount:       b.ReturnCount,
			LateCount:         b.LateCount,
			AverageReturnDays: b.AverageReturnDays,
			TotalLateDays:     b.TotalLateDays,
			LastBorrowedAt:    b.LastBorrowedAt,
		}
	}
	return StudentHistoryDTO{
		Name:          h.Name,
		Surname:       h.Surname,
		TotalBorrowed: h.TotalBorrowed,
		TotalReturned: h.TotalReturned,
		ActiveLoans:   h.ActiveLoans,
		LateReturns:   h.LateReturns,
		Books:         books,
		Entries:       toHistoryEntryDTOs(h.Entries),
	}
}

func toBookHistoryDTO(h stats.BookHistory) BookHistoryDTO {
	borrowers := make([]BorrowerSummaryDTO, len(h.Borrowers))
	for i, b := range h.Borrowers {
		borrowers[i] = BorrowerSummaryDTO{
			Borrower:          b.Borrower,
			StudentNumber:     b.StudentNumber,
			BorrowCount:       b.BorrowCount,
			ReturnCount:       b.ReturnCount,
			LateCount:         b.LateCount,
			LastBorrowedAt:    b.LastBorrowedAt,
			AverageReturnDays: b.AverageReturnDays,
		}
	}
	return BookHistoryDTO{
		BookID:        h.BookID,
		Title:         h.Title,
		Author:        h.Author,
		Category:      h.Category,
		TotalBorrowed: h.TotalBorrowed,
		TotalReturned: h.TotalReturned,
		ActiveLoans:   h.ActiveLoans,
		LateReturns:   h.LateReturns,
		Borrowers:     borrowers,
		Entries:       toHistoryEntryDTOs(h.Entries),
	}
}

func toSettingsDTO(s circulation.Settings) SettingsDTO {
	return SettingsDTO{
		MaxBorrowLimit:   s.MaxBorrowLimit,
		MaxPenaltyPoints: s.MaxPenaltyPoints,
	}
}
