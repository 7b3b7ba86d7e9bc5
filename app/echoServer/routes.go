package echoServer

import (
	"campushive/app/echoServer/controller/auth"
	"campushive/app/echoServer/controller/book"
	"campushive/app/echoServer/controller/library"
	"campushive/model"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Library   *library.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	e.POST("/auth/register", c.Auth.Register)
	e.POST("/auth/login", c.Auth.Login)

	// Library (authenticated)
	lib := e.Group("/library")
	lib.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	lib.Use(ExtractClaims())

	staff := RequireRoles(model.RoleStaff, model.RoleAdmin)

	// Books
	lib.GET("/books", c.Book.List)
	// Staff endpoints
	lib.POST("/books", c.Book.Create, staff)
	lib.PUT("/books/:id", c.Book.Update, staff)
	lib.DELETE("/books/:id", c.Book.Delete, staff)

	// Circulation
	lib.POST("/checkout", c.Library.Checkout, staff)
	lib.PUT("/return/:checkoutId", c.Library.Return, staff)
	lib.GET("/checkouts", c.Library.ListCheckouts)
	lib.GET("/checkouts/overdue", c.Library.Overdue, staff)
}
