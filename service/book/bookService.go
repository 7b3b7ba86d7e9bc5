package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"campushive/model"
	bookrepo "campushive/repository/book"
)

// errors used by controllers

type ErrCode string

const (
	ErrBadInput        ErrCode = "BAD_INPUT"
	ErrDuplicateCode   ErrCode = "DUPLICATE_CODE"
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrActiveCheckouts ErrCode = "ACTIVE_CHECKOUTS"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode) error { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type UpdateReq struct {
	Title    *string
	ISBN     *string
	BookCode *string
	Quantity *int64
}

type Repo interface {
	Create(ctx context.Context, title, isbn, bookCode string, quantity int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, id int64, f bookrepo.UpdateFields) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type Service interface {
	Create(ctx context.Context, title, isbn, bookCode string, quantity int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Update(ctx context.Context, id int64, req UpdateReq) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

// Create registers a book; a zero quantity means "one copy".
func (s *service) Create(ctx context.Context, title, isbn, bookCode string, quantity int64) (*model.Book, error) {
	if title == "" || isbn == "" || bookCode == "" {
		return nil, makeErr(ErrBadInput)
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, makeErr(ErrBadInput)
	}
	b, err := s.r.Create(ctx, title, isbn, bookCode, quantity)
	if err != nil {
		if isDuplicateCode(err) {
			return nil, makeErr(ErrDuplicateCode)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Update(ctx context.Context, id int64, req UpdateReq) (*model.Book, error) {
	if req.Quantity != nil && *req.Quantity < 1 {
		return nil, makeErr(ErrBadInput)
	}
	b, err := s.r.Update(ctx, id, bookrepo.UpdateFields{
		Title:    req.Title,
		ISBN:     req.ISBN,
		BookCode: req.BookCode,
		Quantity: req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, makeErr(ErrNotFound)
		case isDuplicateCode(err):
			return nil, makeErr(ErrDuplicateCode)
		}
		return nil, err
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.r.Delete(ctx, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	var ae *bookrepo.ActiveCheckoutsError
	if errors.As(err, &ae) {
		return codedError{
			code: ErrActiveCheckouts,
			msg:  fmt.Sprintf("Cannot delete book. %d copy/copies still checked out.", ae.Count),
		}
	}
	return err
}

func isDuplicateCode(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return strings.Contains(strings.ToLower(pgErr.ConstraintName), "book_code") ||
			strings.Contains(strings.ToLower(pgErr.Message), "book_code")
	}
	return false
}
