package library

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"campushive/model"
	libsvc "campushive/service/library"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc libsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func parseDeadline(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// POST /library/checkout
func (h *Controller) Checkout(c echo.Context) error {
	var req CheckoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation error"})
	}
	deadline, ok := parseDeadline(req.ReturnDeadline)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid return deadline"})
	}

	out, err := h.Svc.Checkout(c.Request().Context(), req.BookCode, req.StudentRollNo, deadline)
	if err != nil {
		switch libsvc.Code(err) {
		case libsvc.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Book not found"})
		case libsvc.ErrStudentNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Student not found"})
		case libsvc.ErrNoCopies:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No copies available for checkout"})
		case libsvc.ErrInvalidDeadline:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Return deadline is in the past"})
		default:
			h.Log.Error("checkout", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, out)
}

// PUT /library/return/:checkoutId
func (h *Controller) Return(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("checkoutId"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid checkout id"})
	}

	co, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		switch libsvc.Code(err) {
		case libsvc.ErrCheckoutNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Checkout record not found"})
		case libsvc.ErrAlreadyReturned:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Book already returned"})
		default:
			h.Log.Error("return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, co)
}

// GET /library/checkouts
func (h *Controller) ListCheckouts(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)

	rows, err := h.Svc.List(c.Request().Context(), uid, role)
	if err != nil {
		h.Log.Error("checkout list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if rows == nil {
		rows = []model.Checkout{}
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /library/checkouts/overdue
func (h *Controller) Overdue(c echo.Context) error {
	rows, err := h.Svc.Overdue(c.Request().Context())
	if err != nil {
		h.Log.Error("overdue list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if rows == nil {
		rows = []model.Checkout{}
	}
	return c.JSON(http.StatusOK, rows)
}
