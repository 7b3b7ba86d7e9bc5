package notifyrepo

import (
	"context"

	"campushive/model"
)

type Repo interface {
	// SendCheckoutConfirmation delivers a checkout notice to the borrower.
	// Best-effort: callers log failures and move on.
	SendCheckoutConfirmation(ctx context.Context, email, name string, book model.Book, co model.Checkout) error
}
