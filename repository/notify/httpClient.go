package notifyrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campushive/model"
	"campushive/util/httpx"
)

type httpRepo struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTP posts checkout confirmations to the campus mail gateway.
func NewHTTP(url, apiKey string) Repo {
	return &httpRepo{url: url, apiKey: apiKey, client: httpx.Client()}
}

func (r *httpRepo) SendCheckoutConfirmation(ctx context.Context, email, name string, book model.Book, co model.Checkout) error {
	body := map[string]any{
		"to":              email,
		"name":            name,
		"template":        "library_checkout",
		"book_title":      book.Title,
		"book_code":       book.BookCode,
		"return_deadline": co.ReturnDeadline.Format(time.RFC3339),
	}
	b, _ := json.Marshal(body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify gateway: %s", resp.Status)
	}
	return nil
}

// Noop is used when no gateway is configured.
type Noop struct{}

func (Noop) SendCheckoutConfirmation(ctx context.Context, email, name string, book model.Book, co model.Checkout) error {
	return nil
}
