// Package memory provides an in-memory catalog.Store for testing and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kutuphane/circulation-engine/catalog"
	"github.com/kutuphane/circulation-engine/circulation"
)

// Store is a thread-safe in-memory implementation of catalog.Store.
type Store struct {
	mu       sync.RWMutex
	books    map[string]circulation.Book
	students map[string]circulation.Student
	settings *circulation.Settings
	history  []catalog.HistoryEntry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		books:    make(map[string]circulation.Book),
		students: make(map[string]circulation.Student),
	}
}

// =============================================================================
// BOOKS
// =============================================================================

func (s *Store) ListBooks(_ context.Context) ([]circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]circulation.Book, 0, len(s.books))
	for _, b := range s.books {
		books = append(books, cloneBook(b))
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (s *Store) GetBook(_ context.Context, id string) (*circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, nil
	}
	clone := cloneBook(b)
	return &clone, nil
}

func (s *Store) SaveBook(_ context.Context, book circulation.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books[book.ID] = cloneBook(book)
	return nil
}

func (s *Store) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.books, id)
	return nil
}

// =============================================================================
// STUDENTS
// =============================================================================

func (s *Store) ListStudents(_ context.Context) ([]circulation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]circulation.Student, 0, len(s.students))
	for _, st := range s.students {
		students = append(students, st)
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Surname != students[j].Surname {
			return students[i].Surname < students[j].Surname
		}
		return students[i].Name < students[j].Name
	})
	return students, nil
}

func (s *Store) GetStudent(_ context.Context, id string) (*circulation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.students[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) SaveStudent(_ context.Context, student circulation.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.students[student.ID] = student
	return nil
}

func (s *Store) DeleteStudent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.students, id)
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) GetSettings(_ context.Context) (*circulation.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, nil
	}
	settings := *s.settings
	return &settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings circulation.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

// =============================================================================
// LOAN HISTORY
// =============================================================================

func (s *Store) AppendHistory(_ context.Context, entry catalog.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	return nil
}

func (s *Store) CompleteHistory(_ context.Context, bookID, borrower string, ret catalog.HistoryReturn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := circulation.NormalizeName(borrower)
	for i := range s.history {
		e := &s.history[i]
		if e.Status != catalog.HistoryActive || e.BookID != bookID {
			continue
		}
		if circulation.NormalizeName(e.Borrower) != name {
			continue
		}
		e.Status = catalog.HistoryReturned
		e.ReturnedAt = ret.ReturnedAt
		e.WasLate = ret.WasLate
		e.LateDays = ret.LateDays
		e.ReturnPersonel = ret.Personel
		return nil
	}
	// No open entry: the loan predates the history log. Not an error.
	return nil
}

func (s *Store) ListHistory(_ context.Context) ([]catalog.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]catalog.HistoryEntry, len(s.history))
	copy(history, s.history)
	return history, nil
}

func cloneBook(b circulation.Book) circulation.Book {
	clone := b
	clone.Loans = append([]circulation.LoanEntry(nil), b.Loans...)
	return clone
}

var _ catalog.Store = (*Store)(nil)
