// repository/checkout/checkoutRepository.go
package checkoutrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campushive/model"
)

var (
	// ErrNoCopies is returned when the guarded decrement matches zero rows.
	ErrNoCopies = errors.New("no copies available")
	// ErrAlreadyReturned is returned when the checkout was closed before.
	ErrAlreadyReturned = errors.New("already returned")
)

type Repo interface {
	// Checkout inserts a ledger row and decrements the book's availability in
	// one transaction. The decrement only applies while available_quantity > 0;
	// zero affected rows aborts the whole transaction with ErrNoCopies, so two
	// racing calls for the last copy cannot both succeed.
	Checkout(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (*model.Checkout, error)

	// Return flips the ledger row to returned and gives the copy back to the
	// book, clamped at quantity. A book deleted out-of-band is tolerated.
	Return(ctx context.Context, checkoutID int64) (*model.Checkout, error)

	ListAll(ctx context.Context) ([]model.Checkout, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Checkout, error)
	ListOverdue(ctx context.Context, now time.Time) ([]model.Checkout, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const checkoutCols = `id, book_code, student_roll_no, student_user_id,
       checkout_date, return_deadline, returned_date, returned`

func (r *repo) Checkout(ctx context.Context, bookCode, rollNo string, userID int64, deadline time.Time) (co *model.Checkout, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Guard: only take a copy if one is left.
	const dec = `
UPDATE books
SET available_quantity = available_quantity - 1,
    available          = available_quantity - 1 > 0
WHERE book_code = $1
  AND available_quantity > 0`
	res, err := tx.ExecContext(ctx, dec, bookCode)
	if err != nil {
		return nil, err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		err = ErrNoCopies
		return nil, err
	}

	const ins = `
INSERT INTO checkouts (book_code, student_roll_no, student_user_id, return_deadline)
VALUES ($1, $2, $3, $4)
RETURNING ` + checkoutCols
	var c model.Checkout
	if err = tx.QueryRowContext(ctx, ins, bookCode, rollNo, userID, deadline).Scan(
		&c.ID, &c.BookCode, &c.StudentRollNo, &c.StudentUserID,
		&c.CheckoutDate, &c.ReturnDeadline, &c.ReturnedDate, &c.Returned,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Return(ctx context.Context, checkoutID int64) (co *model.Checkout, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const sel = `
SELECT ` + checkoutCols + `
FROM checkouts
WHERE id = $1
FOR UPDATE`
	var c model.Checkout
	if err = tx.QueryRowContext(ctx, sel, checkoutID).Scan(
		&c.ID, &c.BookCode, &c.StudentRollNo, &c.StudentUserID,
		&c.CheckoutDate, &c.ReturnDeadline, &c.ReturnedDate, &c.Returned,
	); err != nil {
		return nil, err
	}
	if c.Returned {
		err = ErrAlreadyReturned
		return nil, err
	}

	const upd = `
UPDATE checkouts
SET returned = TRUE, returned_date = NOW()
WHERE id = $1
RETURNING returned_date`
	if err = tx.QueryRowContext(ctx, upd, checkoutID).Scan(&c.ReturnedDate); err != nil {
		return nil, err
	}
	c.Returned = true

	// Missing book row (deleted out-of-band) is fine: zero rows affected.
	const inc = `
UPDATE books
SET available_quantity = LEAST(available_quantity + 1, quantity),
    available          = TRUE
WHERE book_code = $1`
	if _, err = tx.ExecContext(ctx, inc, c.BookCode); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) ListAll(ctx context.Context) ([]model.Checkout, error) {
	const q = `SELECT ` + checkoutCols + ` FROM checkouts ORDER BY checkout_date DESC, id DESC`
	return r.list(ctx, q)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Checkout, error) {
	const q = `
SELECT ` + checkoutCols + `
FROM checkouts
WHERE student_user_id = $1
ORDER BY checkout_date DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *repo) ListOverdue(ctx context.Context, now time.Time) ([]model.Checkout, error) {
	const q = `
SELECT ` + checkoutCols + `
FROM checkouts
WHERE NOT returned AND return_deadline < $1
ORDER BY return_deadline ASC`
	return r.list(ctx, q, now)
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.Checkout, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Checkout
	for rows.Next() {
		var c model.Checkout
		if err := rows.Scan(
			&c.ID, &c.BookCode, &c.StudentRollNo, &c.StudentUserID,
			&c.CheckoutDate, &c.ReturnDeadline, &c.ReturnedDate, &c.Returned,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
