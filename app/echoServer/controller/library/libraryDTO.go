package library

type CheckoutReq struct {
	BookCode       string `json:"bookCode" validate:"required"`
	StudentRollNo  string `json:"studentRollNo" validate:"required"`
	ReturnDeadline string `json:"returnDeadline" validate:"required"`
}
