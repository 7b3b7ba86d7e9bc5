// model/book.go
package model

import "time"

type Book struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	ISBN              string    `json:"isbn"`
	BookCode          string    `json:"bookCode"`
	Quantity          int64     `json:"quantity"`
	AvailableQuantity int64     `json:"availableQuantity"`
	Available         bool      `json:"available"`
	CreatedAt         time.Time `json:"createdAt"`
}
