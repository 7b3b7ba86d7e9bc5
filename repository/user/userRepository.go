package userrepo

import (
	"context"
	"database/sql"

	"campushive/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	// ByRollNo resolves a borrower identity; only students can borrow.
	ByRollNo(ctx context.Context, rollNo string) (*model.User, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, roll_no, role, password_hash)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, created_at`,
		u.Name, u.Email, u.RollNo, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	var rollNo sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, roll_no, role, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Name, &u.Email, &rollNo, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.RollNo = rollNo.String
	return u, nil
}

func (r *repo) ByRollNo(ctx context.Context, rollNo string) (*model.User, error) {
	u := &model.User{}
	var rn sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, roll_no, role, password_hash, created_at
		FROM users
		WHERE roll_no = $1 AND role = 'student'`, rollNo,
	).Scan(&u.ID, &u.Name, &u.Email, &rn, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.RollNo = rn.String
	return u, nil
}
