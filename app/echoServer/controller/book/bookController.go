package book

import (
	"log/slog"
	"net/http"
	"strconv"

	"campushive/model"
	booksvc "campushive/service/book"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Create a book
// @Summary      Add a book
// @Tags         library
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateBookReq  true  "Book payload"
// @Success      201  {object}  model.Book
// @Failure      400  {object}  map[string]any
// @Router       /library/books [post]
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	b, err := h.Svc.Create(c.Request().Context(), req.Title, req.ISBN, req.BookCode, req.Quantity)
	if err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrDuplicateCode:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Book code already exists"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book payload"})
		default:
			h.Log.Error("book create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /library/books
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		h.Log.Error("book list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if rows == nil {
		rows = []model.Book{}
	}
	return c.JSON(http.StatusOK, rows)
}

// PUT /library/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}

	b, err := h.Svc.Update(c.Request().Context(), id, booksvc.UpdateReq{
		Title:    req.Title,
		ISBN:     req.ISBN,
		BookCode: req.BookCode,
		Quantity: req.Quantity,
	})
	if err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Book not found"})
		case booksvc.ErrDuplicateCode:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Book code already exists"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book payload"})
		default:
			h.Log.Error("book update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /library/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Book not found"})
		case booksvc.ErrActiveCheckouts:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		default:
			h.Log.Error("book delete", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted successfully"})
}
