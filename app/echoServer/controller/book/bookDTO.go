package book

type CreateBookReq struct {
	Title    string `json:"title" validate:"required"`
	ISBN     string `json:"isbn" validate:"required"`
	BookCode string `json:"bookCode" validate:"required"`
	Quantity int64  `json:"quantity" validate:"omitempty,gte=1"`
}

type UpdateBookReq struct {
	Title    *string `json:"title"`
	ISBN     *string `json:"isbn"`
	BookCode *string `json:"bookCode"`
	Quantity *int64  `json:"quantity" validate:"omitempty,gte=1"`
}
