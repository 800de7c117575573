/*
Package sqlite provides a SQLite-backed implementation of catalog.Store.

PURPOSE:
  Production persistence for the catalog: books with their active loans,
  students, library settings and the loan history log.

KEY TABLES:
  books:        One row per title, condition counts included
  loans:        Active loan entries, child rows of books
  students:     Student records with cached circulation counters
  settings:     Single-row table for the library limits
  loan_history: Durable record of every borrow and its return

LOANS VS HISTORY:
  A loan row is deleted when the book comes back; loan_history keeps the
  full record. SaveBook replaces the book's loan rows wholesale inside a
  transaction, which keeps the book and its loans consistent without
  per-entry bookkeeping in the service layer.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/library.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - catalog/store.go: Interface definition
  - catalog/store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kutuphane/circulation-engine/catalog"
	"github.com/kutuphane/circulation-engine/circulation"
)

// Store implements catalog.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Books
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		total_quantity INTEGER NOT NULL DEFAULT 0,
		healthy_count INTEGER NOT NULL DEFAULT 0,
		damaged_count INTEGER NOT NULL DEFAULT 0,
		lost_count INTEGER NOT NULL DEFAULT 0,
		shelf TEXT,
		publisher TEXT,
		summary TEXT,
		book_number INTEGER DEFAULT 0,
		year INTEGER DEFAULT 0,
		page_count INTEGER DEFAULT 0,
		last_personel TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_books_title ON books(title);
	CREATE INDEX IF NOT EXISTS idx_books_category ON books(category);

	-- Active loans (child rows of books; deleted on return)
	CREATE TABLE IF NOT EXISTS loans (
		book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		borrower TEXT NOT NULL,
		due_date TEXT NOT NULL,
		personel TEXT,
		PRIMARY KEY (book_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower);

	-- Students
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		student_number INTEGER DEFAULT 0,
		class INTEGER DEFAULT 0,
		branch TEXT,
		borrowed INTEGER NOT NULL DEFAULT 0,
		returned INTEGER NOT NULL DEFAULT 0,
		late INTEGER NOT NULL DEFAULT 0,
		penalty_points INTEGER NOT NULL DEFAULT 0,
		banned BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_students_surname ON students(surname, name);

	-- Settings (single row)
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		max_borrow_limit INTEGER NOT NULL,
		max_penalty_points INTEGER NOT NULL
	);

	-- Loan history (durable; survives the return)
	CREATE TABLE IF NOT EXISTS loan_history (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		book_title TEXT NOT NULL,
		book_author TEXT,
		book_category TEXT,
		borrower TEXT NOT NULL,
		student_number INTEGER DEFAULT 0,
		borrowed_at TEXT NOT NULL,
		due_date TEXT NOT NULL,
		loan_days INTEGER NOT NULL,
		returned_at TEXT,
		was_late BOOLEAN NOT NULL DEFAULT FALSE,
		late_days INTEGER NOT NULL DEFAULT 0,
		borrow_personel TEXT,
		return_personel TEXT,
		status TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_history_book ON loan_history(book_id);
	CREATE INDEX IF NOT EXISTS idx_history_borrower ON loan_history(borrower);
	CREATE INDEX IF NOT EXISTS idx_history_status ON loan_history(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BOOKS
// =============================================================================

const bookColumns = `id, title, author, category, quantity, total_quantity,
	healthy_count, damaged_count, lost_count, shelf, publisher, summary,
	book_number, year, page_count, last_personel`

// ListBooks returns all books with their active loans, ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []circulation.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		loans, err := s.loadLoans(ctx, books[i].ID)
		if err != nil {
			return nil, err
		}
		books[i].Loans = loans
	}
	return books, nil
}

// GetBook returns a book by ID, or nil if it doesn't exist.
func (s *Store) GetBook(ctx context.Context, id string) (*circulation.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	loans, err := s.loadLoans(ctx, book.ID)
	if err != nil {
		return nil, err
	}
	book.Loans = loans
	return &book, nil
}

// SaveBook upserts the book and replaces its loan rows in one transaction.
func (s *Store) SaveBook(ctx context.Context, book circulation.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			category = excluded.category,
			quantity = excluded.quantity,
			total_quantity = excluded.total_quantity,
			healthy_count = excluded.healthy_count,
			damaged_count = excluded.damaged_count,
			lost_count = excluded.lost_count,
			shelf = excluded.shelf,
			publisher = excluded.publisher,
			summary = excluded.summary,
			book_number = excluded.book_number,
			year = excluded.year,
			page_count = excluded.page_count,
			last_personel = excluded.last_personel
	`,
		book.ID, book.Title, book.Author, book.Category,
		book.Quantity, book.TotalQuantity,
		book.HealthyCount, book.DamagedCount, book.LostCount,
		book.Shelf, book.Publisher, book.Summary,
		book.BookNumber, book.Year, book.PageCount, book.LastPersonel,
	)
	if err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM loans WHERE book_id = ?`, book.ID); err != nil {
		return fmt.Errorf("failed to clear loans: %w", err)
	}
	for i, loan := range book.Loans {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO loans (book_id, position, borrower, due_date, personel)
			VALUES (?, ?, ?, ?, ?)
		`, book.ID, i, loan.Borrower, loan.DueDate.Format(time.RFC3339), loan.Personel)
		if err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteBook removes a book; its loan rows go with it (ON DELETE CASCADE).
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

func (s *Store) loadLoans(ctx context.Context, bookID string) ([]circulation.LoanEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT borrower, due_date, personel
		FROM loans WHERE book_id = ? ORDER BY position ASC
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}
	defer rows.Close()

	var loans []circulation.LoanEntry
	for rows.Next() {
		var loan circulation.LoanEntry
		var due string
		if err := rows.Scan(&loan.Borrower, &due, &loan.Personel); err != nil {
			return nil, err
		}
		loan.DueDate, err = time.Parse(time.RFC3339, due)
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q: %w", due, err)
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (circulation.Book, error) {
	var b circulation.Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Category,
		&b.Quantity, &b.TotalQuantity,
		&b.HealthyCount, &b.DamagedCount, &b.LostCount,
		&b.Shelf, &b.Publisher, &b.Summary,
		&b.BookNumber, &b.Year, &b.PageCount, &b.LastPersonel,
	)
	return b, err
}

// =============================================================================
// STUDENTS
// =============================================================================

const studentColumns = `id, name, surname, student_number, class, branch,
	borrowed, returned, late, penalty_points, banned`

// ListStudents returns all students ordered by surname, then name.
func (s *Store) ListStudents(ctx context.Context) ([]circulation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students ORDER BY surname ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []circulation.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// GetStudent returns a student by ID, or nil if they don't exist.
func (s *Store) GetStudent(ctx context.Context, id string) (*circulation.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = ?`, id)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveStudent upserts a student record.
func (s *Store) SaveStudent(ctx context.Context, student circulation.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			surname = excluded.surname,
			student_number = excluded.student_number,
			class = excluded.class,
			branch = excluded.branch,
			borrowed = excluded.borrowed,
			returned = excluded.returned,
			late = excluded.late,
			penalty_points = excluded.penalty_points,
			banned = excluded.banned
	`,
		student.ID, student.Name, student.Surname, student.StudentNumber,
		student.Class, student.Branch,
		student.Borrowed, student.Returned, student.Late,
		student.PenaltyPoints, student.Banned,
	)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student record.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

func scanStudent(row rowScanner) (circulation.Student, error) {
	var st circulation.Student
	err := row.Scan(
		&st.ID, &st.Name, &st.Surname, &st.StudentNumber,
		&st.Class, &st.Branch,
		&st.Borrowed, &st.Returned, &st.Late,
		&st.PenaltyPoints, &st.Banned,
	)
	return st, err
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the stored settings, or nil if none were saved yet.
func (s *Store) GetSettings(ctx context.Context) (*circulation.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settings circulation.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT max_borrow_limit, max_penalty_points FROM settings WHERE id = 1
	`).Scan(&settings.MaxBorrowLimit, &settings.MaxPenaltyPoints)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings writes the single settings row.
func (s *Store) SaveSettings(ctx context.Context, settings circulation.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, max_borrow_limit, max_penalty_points)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			max_borrow_limit = excluded.max_borrow_limit,
			max_penalty_points = excluded.max_penalty_points
	`, settings.MaxBorrowLimit, settings.MaxPenaltyPoints)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// =============================================================================
// LOAN HISTORY
// =============================================================================

// AppendHistory records a borrow in the history log.
func (s *Store) AppendHistory(ctx context.Context, entry catalog.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loan_history
		(id, book_id, book_title, book_author, book_category, borrower,
		 student_number, borrowed_at, due_date, loan_days, returned_at,
		 was_late, late_days, borrow_personel, return_personel, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.BookID, entry.BookTitle, entry.BookAuthor,
		entry.BookCategory, entry.Borrower, entry.StudentNumber,
		entry.BorrowedAt.Format(time.RFC3339), entry.DueDate.Format(time.RFC3339),
		entry.LoanDays, nullTime(entry.ReturnedAt),
		entry.WasLate, entry.LateDays,
		entry.BorrowPersonel, entry.ReturnPersonel, entry.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// CompleteHistory marks the oldest open entry for (bookID, borrower) as
// returned. Name matching is done in Go because normalization involves
// Turkish case folding SQLite can't do.
func (s *Store) CompleteHistory(ctx context.Context, bookID, borrower string, ret catalog.HistoryReturn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, borrower FROM loan_history
		WHERE book_id = ? AND status = ?
		ORDER BY borrowed_at ASC
	`, bookID, catalog.HistoryActive)
	if err != nil {
		return fmt.Errorf("failed to find open history entry: %w", err)
	}
	defer rows.Close()

	name := circulation.NormalizeName(borrower)
	var entryID string
	for rows.Next() {
		var id, recorded string
		if err := rows.Scan(&id, &recorded); err != nil {
			return err
		}
		if circulation.NormalizeName(recorded) == name {
			entryID = id
			break
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if entryID == "" {
		// No open entry: the loan predates the history log. Not an error.
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE loan_history
		SET status = ?, returned_at = ?, was_late = ?, late_days = ?,
		    return_personel = ?
		WHERE id = ?
	`, catalog.HistoryReturned, ret.ReturnedAt.Format(time.RFC3339),
		ret.WasLate, ret.LateDays, ret.Personel, entryID)
	if err != nil {
		return fmt.Errorf("failed to complete history entry: %w", err)
	}
	return nil
}

// ListHistory returns all history entries, oldest first.
func (s *Store) ListHistory(ctx context.Context) ([]catalog.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, book_id, book_title, book_author, book_category, borrower,
		       student_number, borrowed_at, due_date, loan_days, returned_at,
		       was_late, late_days, borrow_personel, return_personel, status
		FROM loan_history
		ORDER BY borrowed_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []catalog.HistoryEntry
	for rows.Next() {
		var e catalog.HistoryEntry
		var borrowedAt, dueDate string
		var returnedAt sql.NullString
		err := rows.Scan(
			&e.ID, &e.BookID, &e.BookTitle, &e.BookAuthor, &e.BookCategory,
			&e.Borrower, &e.StudentNumber, &borrowedAt, &dueDate, &e.LoanDays,
			&returnedAt, &e.WasLate, &e.LateDays,
			&e.BorrowPersonel, &e.ReturnPersonel, &e.Status,
		)
		if err != nil {
			return nil, err
		}
		if e.BorrowedAt, err = time.Parse(time.RFC3339, borrowedAt); err != nil {
			return nil, fmt.Errorf("invalid borrowed_at %q: %w", borrowedAt, err)
		}
		if e.DueDate, err = time.Parse(time.RFC3339, dueDate); err != nil {
			return nil, fmt.Errorf("invalid due_date %q: %w", dueDate, err)
		}
		if returnedAt.Valid && returnedAt.String != "" {
			if e.ReturnedAt, err = time.Parse(time.RFC3339, returnedAt.String); err != nil {
				return nil, fmt.Errorf("invalid returned_at %q: %w", returnedAt.String, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// nullTime maps the zero time to NULL so open loans have no returned_at.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}

var _ catalog.Store = (*Store)(nil)
