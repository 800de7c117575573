/*
Package stats builds history summaries from the loan history log.

PURPOSE:
  Read-side rollups for the staff views: per-student and per-book history
  with totals, late-return counts and average return durations. Everything
  here is derived; the history log is the source of truth.

KEY TYPES:
  StudentHistory: one student's full borrowing record plus per-book rollups
  BookHistory:    one title's full lending record plus per-borrower rollups

AVERAGES:
  Average return days are computed over completed loans only, using
  decimal arithmetic and rounded to one decimal place. A nil average
  means no completed loan exists to average over.

SEE ALSO:
  - catalog/store.go: HistoryEntry, the input record
  - circulation/date.go: duration and overdue calculations
*/
package stats

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kutuphane/circulation-engine/catalog"
	"github.com/kutuphane/circulation-engine/circulation"
)

// =============================================================================
// STUDENT HISTORY
// =============================================================================

// StudentBookSummary is one title's rollup inside a student's history.
type StudentBookSummary struct {
	BookID            string
	BookTitle         string
	BookAuthor        string
	BookCategory      string
	BorrowCount       int
	ReturnCount       int
	LateCount         int
	AverageReturnDays *decimal.Decimal
	TotalLateDays     int
	LastBorrowedAt    time.Time
}

// StudentHistory is a student's complete borrowing record.
type StudentHistory struct {
	Name          string
	Surname       string
	TotalBorrowed int
	TotalReturned int
	ActiveLoans   int
	LateReturns   int
	Books         []StudentBookSummary
	Entries       []catalog.HistoryEntry
}

// BuildStudentHistory summarizes a student's history log entries.
// Entries should already be filtered to the student; see FilterByBorrower.
func BuildStudentHistory(name, surname string, entries []catalog.HistoryEntry) StudentHistory {
	history := StudentHistory{
		Name:    name,
		Surname: surname,
		Books:   []StudentBookSummary{},
		Entries: sortNewestFirst(entries),
	}
	if len(entries) == 0 {
		return history
	}

	history.TotalBorrowed = len(entries)
	for _, e := range entries {
		if isReturned(e) {
			history.TotalReturned++
			if e.WasLate {
				history.LateReturns++
			}
		} else {
			history.ActiveLoans++
		}
	}

	byBook := groupBy(entries, func(e catalog.HistoryEntry) string { return e.BookID })
	for _, group := range byBook {
		summary := StudentBookSummary{
			BookID:            group[0].BookID,
			BookTitle:         group[0].BookTitle,
			BookAuthor:        group[0].BookAuthor,
			BookCategory:      group[0].BookCategory,
			BorrowCount:       len(group),
			AverageReturnDays: averageReturnDays(group),
		}
		for _, e := range group {
			if isReturned(e) {
				summary.ReturnCount++
			}
			if e.WasLate {
				summary.LateCount++
			}
			summary.TotalLateDays += e.LateDays
			if e.BorrowedAt.After(summary.LastBorrowedAt) {
				summary.LastBorrowedAt = e.BorrowedAt
			}
		}
		history.Books = append(history.Books, summary)
	}
	sort.Slice(history.Books, func(i, j int) bool {
		return history.Books[i].LastBorrowedAt.After(history.Books[j].LastBorrowedAt)
	})

	return history
}

// =============================================================================
// BOOK HISTORY
// =============================================================================

// BorrowerSummary is one borrower's rollup inside a book's history.
type BorrowerSummary struct {
	Borrower          string
	StudentNumber     int
	BorrowCount       int
	ReturnCount       int
	LateCount         int
	LastBorrowedAt    time.Time
	AverageReturnDays *decimal.Decimal
}

// BookHistory is a title's complete lending record.
type BookHistory struct {
	BookID        string
	Title         string
	Author        string
	Category      string
	TotalBorrowed int
	TotalReturned int
	ActiveLoans   int
	LateReturns   int
	Borrowers     []BorrowerSummary
	Entries       []catalog.HistoryEntry
}

// BuildBookHistory summarizes a book's history log entries. The book may be
// nil when it was deleted after the loans happened; identifying fields then
// fall back to the history entries themselves.
func BuildBookHistory(book *circulation.Book, entries []catalog.HistoryEntry) BookHistory {
	history := BookHistory{
		Borrowers: []BorrowerSummary{},
		Entries:   sortNewestFirst(entries),
	}
	if book != nil {
		history.BookID = book.ID
		history.Title = book.Title
		history.Author = book.Author
		history.Category = book.Category
	} else if len(entries) > 0 {
		history.BookID = entries[0].BookID
		history.Title = entries[0].BookTitle
		history.Author = entries[0].BookAuthor
		history.Category = entries[0].BookCategory
	}
	if len(entries) == 0 {
		return history
	}

	history.TotalBorrowed = len(entries)
	for _, e := range entries {
		if isReturned(e) {
			history.TotalReturned++
			if e.WasLate {
				history.LateReturns++
			}
		} else {
			history.ActiveLoans++
		}
	}

	byBorrower := groupBy(entries, borrowerKey)
	for _, group := range byBorrower {
		summary := BorrowerSummary{
			Borrower:          group[0].Borrower,
			StudentNumber:     group[0].StudentNumber,
			BorrowCount:       len(group),
			AverageReturnDays: averageReturnDays(group),
		}
		for _, e := range group {
			if isReturned(e) {
				summary.ReturnCount++
			}
			if e.WasLate {
				summary.LateCount++
			}
			if e.BorrowedAt.After(summary.LastBorrowedAt) {
				summary.LastBorrowedAt = e.BorrowedAt
			}
		}
		history.Borrowers = append(history.Borrowers, summary)
	}
	sort.Slice(history.Borrowers, func(i, j int) bool {
		return history.Borrowers[i].LastBorrowedAt.After(history.Borrowers[j].LastBorrowedAt)
	})

	return history
}

// =============================================================================
// FILTERS AND DERIVATIONS
// =============================================================================

// FilterByBorrower returns the entries belonging to the named borrower.
// Matching uses the same candidate-name set as loan matching, so an old
// entry recorded under just the name or just the surname still shows up.
func FilterByBorrower(entries []catalog.HistoryEntry, borrower string) []catalog.HistoryEntry {
	if circulation.NormalizeName(borrower) == "" {
		return nil
	}
	first, surname := circulation.SplitName(borrower)
	names := circulation.CandidateNames(borrower, &circulation.Student{Name: first, Surname: surname})
	var matched []catalog.HistoryEntry
	for _, e := range entries {
		if names.Contains(e.Borrower) {
			matched = append(matched, e)
		}
	}
	return matched
}

// FilterByBook returns the entries for one title.
func FilterByBook(entries []catalog.HistoryEntry, bookID string) []catalog.HistoryEntry {
	var matched []catalog.HistoryEntry
	for _, e := range entries {
		if e.BookID == bookID {
			matched = append(matched, e)
		}
	}
	return matched
}

// LateActiveLoans counts how many of the student's live loans are past due
// as of the given time, scanning the live catalog rather than the history.
func LateActiveLoans(student *circulation.Student, displayName string, books []circulation.Book, asOf time.Time) int {
	names := circulation.CandidateNames(displayName, student)
	late := 0
	for _, book := range books {
		for _, loan := range book.Loans {
			if names.Contains(loan.Borrower) && circulation.IsOverdue(loan.DueDate, asOf) {
				late++
			}
		}
	}
	return late
}

// =============================================================================
// HELPERS
// =============================================================================

func isReturned(e catalog.HistoryEntry) bool {
	return e.Status == catalog.HistoryReturned
}

// averageReturnDays averages completed loan durations, rounded to one
// decimal place. Nil when no loan in the group has been returned.
func averageReturnDays(entries []catalog.HistoryEntry) *decimal.Decimal {
	var durations []decimal.Decimal
	for _, e := range entries {
		if e.ReturnedAt.IsZero() {
			continue
		}
		if days, ok := circulation.DurationDays(e.BorrowedAt, e.ReturnedAt); ok && days > 0 {
			durations = append(durations, decimal.NewFromInt(int64(days)))
		}
	}
	if len(durations) == 0 {
		return nil
	}
	avg := decimal.Avg(durations[0], durations[1:]...).Round(1)
	return &avg
}

// groupBy buckets entries by key, preserving first-seen order of groups.
func groupBy(entries []catalog.HistoryEntry, key func(catalog.HistoryEntry) string) [][]catalog.HistoryEntry {
	index := make(map[string]int)
	var groups [][]catalog.HistoryEntry
	for _, e := range entries {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

// borrowerKey identifies a borrower by student number when present,
// otherwise by normalized name.
func borrowerKey(e catalog.HistoryEntry) string {
	if e.StudentNumber > 0 {
		return "num:" + strconv.Itoa(e.StudentNumber)
	}
	if name := circulation.NormalizeName(e.Borrower); name != "" {
		return "name:" + name
	}
	return "unknown"
}

func sortNewestFirst(entries []catalog.HistoryEntry) []catalog.HistoryEntry {
	sorted := make([]catalog.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BorrowedAt.After(sorted[j].BorrowedAt)
	})
	return sorted
}
