package library

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"campushive/model"
	checkoutrepo "campushive/repository/checkout"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound     ErrCode = "BOOK_NOT_FOUND"
	ErrStudentNotFound  ErrCode = "STUDENT_NOT_FOUND"
	ErrNoCopies         ErrCode = "NO_COPIES"
	ErrCheckoutNotFound ErrCode = "CHECKOUT_NOT_FOUND"
	ErrAlreadyReturned  ErrCode = "ALREADY_RETURNED"
	ErrInvalidDeadline  ErrCode = "INVALID_DEADLINE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// dto

type CheckoutResult struct {
	Checkout      model.Checkout       `json:"checkout"`
	CalendarEvent *model.CalendarEvent `json:"calendarEvent"`
}

// collaborators

type Store interface {
	Checkout(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (*model.Checkout, error)
	Return(ctx context.Context, checkoutID int64) (*model.Checkout, error)
	ListAll(ctx context.Context) ([]model.Checkout, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Checkout, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.Checkout, error)
}

type Books interface {
	ByCode(ctx context.Context, bookCode string) (*model.Book, error)
}

type Borrowers interface {
	ByRollNo(ctx context.Context, rollNo string) (*model.User, error)
}

type Calendar interface {
	Create(ctx context.Context, userID int64, title string, date time.Time, eventType, description string) (*model.CalendarEvent, error)
}

type Notifier interface {
	SendCheckoutConfirmation(ctx context.Context, email, name string, book model.Book, co model.Checkout) error
}

type Service interface {
	// Checkout hands a copy to a student and records the deadline.
	Checkout(ctx context.Context, bookCode, rollNo string, deadline time.Time) (*CheckoutResult, error)

	// Return closes a checkout and gives the copy back.
	Return(ctx context.Context, checkoutID int64) (*model.Checkout, error)

	// List shows a student their own checkouts, staff everything.
	List(ctx context.Context, userID int64, role string) ([]model.Checkout, error)

	// Overdue lists open checkouts past their deadline.
	Overdue(ctx context.Context) ([]model.Checkout, error)
}

// ----- Service implementation -----

type service struct {
	store     Store
	books     Books
	borrowers Borrowers
	calendar  Calendar
	notifier  Notifier
	log       *slog.Logger
}

func New(store Store, books Books, borrowers Borrowers, calendar Calendar, notifier Notifier, log *slog.Logger) Service {
	return &service{store: store, books: books, borrowers: borrowers, calendar: calendar, notifier: notifier, log: log}
}

func (s *service) Checkout(ctx context.Context, bookCode, rollNo string, deadline time.Time) (*CheckoutResult, error) {
	if deadline.Before(time.Now()) {
		return nil, makeErr(ErrInvalidDeadline)
	}

	book, err := s.books.ByCode(ctx, bookCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrBookNotFound)
		}
		return nil, err
	}
	if book.AvailableQuantity <= 0 {
		return nil, makeErr(ErrNoCopies)
	}

	student, err := s.borrowers.ByRollNo(ctx, rollNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrStudentNotFound)
		}
		return nil, err
	}

	// One transaction: ledger insert plus the guarded decrement. A racing
	// request for the last copy loses inside the store, not here.
	co, err := s.store.Checkout(ctx, bookCode, rollNo, student.ID, deadline)
	if err != nil {
		if errors.Is(err, checkoutrepo.ErrNoCopies) {
			return nil, makeErr(ErrNoCopies)
		}
		return nil, err
	}

	// Side effects after commit. Neither failure undoes the checkout.
	ev, err := s.calendar.Create(ctx, student.ID,
		"Return Book: "+book.Title, deadline, model.EventTypeLibrary,
		"Book Code: "+bookCode+" - Return deadline")
	if err != nil {
		s.log.Warn("calendar entry failed", "book_code", bookCode, "err", err)
		ev = nil
	}

	if student.Email != "" {
		go s.sendConfirmation(student.Email, student.Name, *book, *co)
	}

	return &CheckoutResult{Checkout: *co, CalendarEvent: ev}, nil
}

func (s *service) sendConfirmation(email, name string, book model.Book, co model.Checkout) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.notifier.SendCheckoutConfirmation(ctx, email, name, book, co); err != nil {
		s.log.Warn("checkout confirmation failed", "email", email, "err", err)
	}
}

func (s *service) Return(ctx context.Context, checkoutID int64) (*model.Checkout, error) {
	co, err := s.store.Return(ctx, checkoutID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, makeErr(ErrCheckoutNotFound)
		case errors.Is(err, checkoutrepo.ErrAlreadyReturned):
			return nil, makeErr(ErrAlreadyReturned)
		}
		return nil, err
	}
	return co, nil
}

func (s *service) List(ctx context.Context, userID int64, role string) ([]model.Checkout, error) {
	if role == model.RoleStudent {
		return s.store.ListByUser(ctx, userID)
	}
	return s.store.ListAll(ctx)
}

func (s *service) Overdue(ctx context.Context) ([]model.Checkout, error) {
	return s.store.ListOverdue(ctx, time.Now().UTC())
}
