/*
handlers.go - HTTP API handlers for the circulation engine

PURPOSE:
  Exposes the catalog and circulation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Books:
    GET    /api/books                      List all books
    POST   /api/books                      Register a book
    GET    /api/books/{id}                 Get book details
    PUT    /api/books/{id}                 Edit a book
    DELETE /api/books/{id}                 Delete a book
    GET    /api/books/{id}/history         Book lending history

  Circulation:
    POST   /api/books/{id}/borrow          Lend a copy
    POST   /api/books/{id}/return          Take a copy back
    PUT    /api/books/{id}/condition       Replace the condition partition
    POST   /api/books/{id}/condition/adjust Move one copy between buckets
    POST   /api/borrow/check               Advisory borrow evaluation
    GET    /api/loans                      Loan overview

  Students:
    GET    /api/students                   List with reconciled counters
    POST   /api/students                   Register a student
    DELETE /api/students/{id}              Delete (cleans up loans)
    GET    /api/students/{name}/history    Borrowing history

  Settings:
    GET    /api/settings                   Current limits
    PUT    /api/settings                   Update limits

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Book, student or loan not found
  - 409: Conflict (already borrowed, nothing to return, no sound copies)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - catalog/service.go: The domain operations
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kutuphane/circulation-engine/catalog"
	"github.com/kutuphane/circulation-engine/circulation"
	"github.com/kutuphane/circulation-engine/stats"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   catalog.Store
	Service *catalog.Service
}

// NewHandler creates a new handler on top of the given store.
func NewHandler(store catalog.Store) *Handler {
	return &Handler{
		Store:   store,
		Service: catalog.NewService(store),
	}
}

// =============================================================================
// BOOK HANDLERS
// =============================================================================

// ListBooks returns all books with their active loans.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Store.ListBooks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list books", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTOs(books))
}

// GetBook returns a single book.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.Store.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get book", err)
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*book))
}

// CreateBook registers a new book.
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.Service.RegisterBook(r.Context(), catalog.RegisterBookInput{
		Title:        req.Title,
		Author:       req.Author,
		Category:     req.Category,
		Quantity:     req.Quantity,
		HealthyCount: req.HealthyCount,
		DamagedCount: req.DamagedCount,
		LostCount:    req.LostCount,
		Shelf:        req.Shelf,
		Publisher:    req.Publisher,
		Summary:      req.Summary,
		BookNumber:   req.BookNumber,
		Year:         req.Year,
		PageCount:    req.PageCount,
	})
	if err != nil {
		writeServiceError(w, "Failed to register book", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookDTO(*book))
}

// UpdateBook edits a book.
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.Service.UpdateBook(r.Context(), chi.URLParam(r, "id"), catalog.UpdateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Category:      req.Category,
		TotalQuantity: req.TotalQuantity,
		HealthyCount:  req.HealthyCount,
		DamagedCount:  req.DamagedCount,
		LostCount:     req.LostCount,
		Shelf:         req.Shelf,
		Publisher:     req.Publisher,
		Summary:       req.Summary,
		BookNumber:    req.BookNumber,
		Year:          req.Year,
		PageCount:     req.PageCount,
	})
	if err != nil {
		writeServiceError(w, "Failed to update book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*book))
}

// DeleteBook removes a book.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteBook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete book", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBookHistory returns a book's full lending history.
func (h *Handler) GetBookHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	entries, err := h.Store.ListHistory(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}
	// The book may be gone; history still answers from its own records.
	book, err := h.Store.GetBook(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get book", err)
		return
	}

	history := stats.BuildBookHistory(book, stats.FilterByBook(entries, id))
	writeJSON(w, http.StatusOK, toBookHistoryDTO(history))
}

// =============================================================================
// CIRCULATION HANDLERS
// =============================================================================

// BorrowBook lends one copy.
func (h *Handler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	var req BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.Service.Borrow(r.Context(), chi.URLParam(r, "id"), req.Borrower, req.Days, req.Personel)
	if err != nil {
		writeServiceError(w, "Failed to borrow book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*book))
}

// ReturnBook takes a copy back.
func (h *Handler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	var req ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	book, err := h.Service.Return(r.Context(), chi.URLParam(r, "id"), req.Borrower, req.Personel)
	if err != nil {
		writeServiceError(w, "Failed to return book", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*book))
}

// UpdateCondition replaces a book's condition partition.
func (h *Handler) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	var req ConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	counts := circulation.ConditionCounts{
		Healthy: req.HealthyCount,
		Damaged: req.DamagedCount,
		Lost:    req.LostCount,
	}
	book, err := h.Service.UpdateCondition(r.Context(), chi.URLParam(r, "id"), req.TotalQuantity, counts, req.Personel)
	if err != nil {
		writeServiceError(w, "Failed to update condition", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookDTO(*book))
}

// AdjustCondition moves one copy between condition buckets. A rejected move
// is a 200 with changed=false, not an error.
func (h *Handler) AdjustCondition(w http.ResponseWriter, r *http.Request) {
	var req AdjustConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	bucket := circulation.Bucket(req.Bucket)
	switch bucket {
	case circulation.BucketHealthy, circulation.BucketDamaged, circulation.BucketLost:
	default:
		writeError(w, http.StatusBadRequest, "Unknown bucket", nil)
		return
	}

	book, changed, err := h.Service.AdjustCondition(r.Context(), chi.URLParam(r, "id"), bucket, req.Delta)
	if err != nil {
		writeServiceError(w, "Failed to adjust condition", err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustConditionDTO{Changed: changed, Book: toBookDTO(*book)})
}

// CheckBorrow runs the advisory pre-flight for a proposed borrow.
func (h *Handler) CheckBorrow(w http.ResponseWriter, r *http.Request) {
	var req BorrowCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	check, err := h.Service.CheckBorrow(r.Context(), req.StudentID, req.BookIDs)
	if err != nil {
		writeServiceError(w, "Failed to evaluate borrow", err)
		return
	}

	writeJSON(w, http.StatusOK, BorrowCheckDTO{
		AvailableBooks:       toBookDTOs(check.Selection.AvailableBooks),
		AlreadyBorrowedBooks: toBookDTOs(check.Selection.AlreadyBorrowedBooks),
		ActiveLoanCount:      check.Limit.ActiveLoanCount,
		TotalAfterBorrow:     check.Limit.TotalAfterBorrow,
		ExceedsLimit:         check.Limit.ExceedsLimit,
		ExcessCount:          check.Limit.ExcessCount,
		MaxBorrowLimit:       check.Settings.MaxBorrowLimit,
		MatchedLoans:         toLoanDTOs(check.Limit.MatchedLoans),
		Settings:             toSettingsDTO(check.Settings),
	})
}

// ListLoans returns the flattened loan overview.
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Service.LoanOverview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTOs(loans))
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students with counters reconciled against the
// live loan ledger.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	students, err := h.Store.ListStudents(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}
	books, err := h.Store.ListBooks(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list books", err)
		return
	}
	loans, err := h.Service.LoanOverview(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	now := h.Service.Now()
	dtos := make([]StudentDTO, len(students))
	for i := range students {
		st := students[i]
		fullName := circulation.FullName(st.Name, st.Surname)
		limit := circulation.EvaluateBorrowLimit(circulation.LimitInput{
			StudentFullName: fullName,
			Student:         &st,
			Loans:           loans,
			Books:           books,
		})
		counters := circulation.NormalizeCounters(&st, limit.ActiveLoanCount)

		dtos[i] = StudentDTO{
			ID:            st.ID,
			Name:          st.Name,
			Surname:       st.Surname,
			StudentNumber: st.StudentNumber,
			Class:         st.Class,
			Branch:        st.Branch,
			Borrowed:      counters.Borrowed,
			Returned:      counters.Returned,
			Late:          st.Late,
			ActiveLoans:   limit.ActiveLoanCount,
			LateLoans:     stats.LateActiveLoans(&st, fullName, books, now),
			PenaltyPoints: st.PenaltyPoints,
			Banned:        st.Banned,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateStudent registers a new student.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" {
		writeError(w, http.StatusBadRequest, "Name and surname are required", nil)
		return
	}

	student := circulation.Student{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		Surname:       strings.TrimSpace(req.Surname),
		StudentNumber: req.StudentNumber,
		Class:         req.Class,
		Branch:        req.Branch,
	}
	if err := h.Store.SaveStudent(r.Context(), student); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student", err)
		return
	}

	writeJSON(w, http.StatusCreated, StudentDTO{
		ID:            student.ID,
		Name:          student.Name,
		Surname:       student.Surname,
		StudentNumber: student.StudentNumber,
		Class:         student.Class,
		Branch:        student.Branch,
	})
}

// DeleteStudent removes a student and cleans up their loans.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "Failed to delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStudentHistory returns the named student's borrowing history. The name
// is matched against the history log with the candidate-name set, so entries
// recorded under a partial name surface too.
func (h *Handler) GetStudentHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi hands back the raw path segment; names contain spaces and
	// non-ASCII letters, so unescape before matching.
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if circulation.NormalizeName(name) == "" {
		writeError(w, http.StatusBadRequest, "Student name is required", nil)
		return
	}

	entries, err := h.Store.ListHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	first, surname := circulation.SplitName(name)
	history := stats.BuildStudentHistory(first, surname, stats.FilterByBorrower(entries, name))
	writeJSON(w, http.StatusOK, toStudentHistoryDTO(history))
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the current limits, falling back to defaults.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings validates and stores new limits.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings := circulation.Settings{
		MaxBorrowLimit:   req.MaxBorrowLimit,
		MaxPenaltyPoints: req.MaxPenaltyPoints,
	}
	if err := h.Service.UpdateSettings(r.Context(), settings); err != nil {
		writeServiceError(w, "Failed to update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps catalog sentinels to HTTP status codes.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case catalog.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case catalog.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case catalog.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
