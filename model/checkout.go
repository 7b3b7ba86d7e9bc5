// model/checkout.go
package model

import "time"

type Checkout struct {
	ID             int64      `json:"id"`
	BookCode       string     `json:"bookCode"`
	StudentRollNo  string     `json:"studentRollNo"`
	StudentUserID  int64      `json:"studentUserId"`
	CheckoutDate   time.Time  `json:"checkoutDate"`
	ReturnDeadline time.Time  `json:"returnDeadline"`
	ReturnedDate   *time.Time `json:"returnedDate,omitempty"`
	Returned       bool       `json:"returned"`
}
