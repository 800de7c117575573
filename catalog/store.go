/*
store.go - Persistence interface for the catalog

PURPOSE:
  Defines the interface between the catalog service and the database.
  Books carry their active loans; returning a loan deletes the entry, so
  the only durable record of a finished loan is the history log.

KEY TYPES:
  Store:        books, students, settings, loan history
  HistoryEntry: one borrow (and its eventual return) in the history log

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - catalog/store/memory: in-memory store for tests

SEE ALSO:
  - service.go: the domain operations built on this interface
*/
package catalog

import (
	"context"
	"time"

	"github.com/kutuphane/circulation-engine/circulation"
)

// Store handles persistence for books, students, settings and loan history.
// Implementations must be safe for concurrent use.
type Store interface {
	// Books. SaveBook upserts the record together with its loan entries.
	ListBooks(ctx context.Context) ([]circulation.Book, error)
	GetBook(ctx context.Context, id string) (*circulation.Book, error)
	SaveBook(ctx context.Context, book circulation.Book) error
	DeleteBook(ctx context.Context, id string) error

	// Students.
	ListStudents(ctx context.Context) ([]circulation.Student, error)
	GetStudent(ctx context.Context, id string) (*circulation.Student, error)
	SaveStudent(ctx context.Context, student circulation.Student) error
	DeleteStudent(ctx context.Context, id string) error

	// Settings. GetSettings returns nil when nothing is stored yet; callers
	// fall back to circulation.DefaultSettings.
	GetSettings(ctx context.Context) (*circulation.Settings, error)
	SaveSettings(ctx context.Context, settings circulation.Settings) error

	// Loan history. AppendHistory records a borrow; CompleteHistory marks
	// the oldest open entry for (bookID, borrower) as returned.
	AppendHistory(ctx context.Context, entry HistoryEntry) error
	CompleteHistory(ctx context.Context, bookID, borrower string, ret HistoryReturn) error
	ListHistory(ctx context.Context) ([]HistoryEntry, error)
}

// History entry status values.
const (
	HistoryActive   = "active"
	HistoryReturned = "returned"
)

// HistoryEntry is one borrow in the loan history log. Unlike the loan entry
// on the book it survives the return, so history views and counters can be
// rebuilt from it.
type HistoryEntry struct {
	ID             string
	BookID         string
	BookTitle      string
	BookAuthor     string
	BookCategory   string
	Borrower       string
	StudentNumber  int
	BorrowedAt     time.Time
	DueDate        time.Time
	LoanDays       int
	ReturnedAt     time.Time // zero while the loan is open
	WasLate        bool
	LateDays       int
	BorrowPersonel string
	ReturnPersonel string
	Status         string
}

// HistoryReturn carries the fields CompleteHistory fills in on return.
type HistoryReturn struct {
	ReturnedAt time.Time
	WasLate    bool
	LateDays   int
	Personel   string
}
