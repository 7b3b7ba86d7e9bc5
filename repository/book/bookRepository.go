package bookrepo

import (
	"context"
	"database/sql"
	"fmt"

	"campushive/model"
)

// ActiveCheckoutsError blocks deletion while copies are still out.
type ActiveCheckoutsError struct{ Count int64 }

func (e *ActiveCheckoutsError) Error() string {
	return fmt.Sprintf("%d copy/copies still checked out", e.Count)
}

type UpdateFields struct {
	Title    *string
	ISBN     *string
	BookCode *string
	Quantity *int64
}

type Repo interface {
	Create(ctx context.Context, title, isbn, bookCode string, quantity int64) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	ByID(ctx context.Context, id int64) (*model.Book, error)
	ByCode(ctx context.Context, bookCode string) (*model.Book, error)
	Update(ctx context.Context, id int64, f UpdateFields) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `id, title, isbn, book_code, quantity, available_quantity, available, created_at`

func scanBook(row *sql.Row) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.ISBN, &b.BookCode,
		&b.Quantity, &b.AvailableQuantity, &b.Available, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Create(ctx context.Context, title, isbn, bookCode string, quantity int64) (*model.Book, error) {
	const q = `
INSERT INTO books (title, isbn, book_code, quantity, available_quantity, available)
VALUES ($1, $2, $3, $4, $4, $4 > 0)
RETURNING ` + bookCols
	return scanBook(r.db.QueryRowContext(ctx, q, title, isbn, bookCode, quantity))
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ISBN, &b.BookCode,
			&b.Quantity, &b.AvailableQuantity, &b.Available, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE id = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) ByCode(ctx context.Context, bookCode string) (*model.Book, error) {
	const q = `SELECT ` + bookCols + ` FROM books WHERE book_code = $1`
	return scanBook(r.db.QueryRowContext(ctx, q, bookCode))
}

// Update applies partial field updates in one statement so the quantity delta
// and the availability recompute cannot interleave with a checkout. Every SET
// expression reads the pre-update row, so the delta math stays consistent.
// available_quantity floors at 0 when quantity drops below the open checkouts;
// the deficit is absorbed by future returns.
func (r *repo) Update(ctx context.Context, id int64, f UpdateFields) (*model.Book, error) {
	const q = `
UPDATE books SET
    title              = COALESCE($2, title),
    isbn               = COALESCE($3, isbn),
    book_code          = COALESCE($4, book_code),
    quantity           = COALESCE($5, quantity),
    available_quantity = GREATEST(available_quantity + COALESCE($5, quantity) - quantity, 0),
    available          = GREATEST(available_quantity + COALESCE($5, quantity) - quantity, 0) > 0
WHERE id = $1
RETURNING ` + bookCols
	return scanBook(r.db.QueryRowContext(ctx, q, id, f.Title, f.ISBN, f.BookCode, f.Quantity))
}

// Delete refuses while any open checkout references the book's code. The count
// and the delete run in one transaction so a concurrent checkout cannot slip
// between the guard and the removal.
func (r *repo) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var code string
	const sel = `SELECT book_code FROM books WHERE id = $1 FOR UPDATE`
	if err = tx.QueryRowContext(ctx, sel, id).Scan(&code); err != nil {
		return err
	}

	var open int64
	const cnt = `SELECT COUNT(*) FROM checkouts WHERE book_code = $1 AND NOT returned`
	if err = tx.QueryRowContext(ctx, cnt, code).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		err = &ActiveCheckoutsError{Count: open}
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}
