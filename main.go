// Package main CampusHive library API.
//
// @title           CampusHive Library API
// @version         1.0
// @description     Campus library circulation service (catalog, checkouts, returns).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"campushive/app/echoServer"
	authctrl "campushive/app/echoServer/controller/auth"
	bookctrl "campushive/app/echoServer/controller/book"
	libraryctrl "campushive/app/echoServer/controller/library"
	"campushive/app/echoServer/validation"
	"campushive/config"
	bookrepo "campushive/repository/book"
	calendarrepo "campushive/repository/calendar"
	checkoutrepo "campushive/repository/checkout"
	notifyrepo "campushive/repository/notify"
	userrepo "campushive/repository/user"
	authsvc "campushive/service/auth"
	booksvc "campushive/service/book"
	librarysvc "campushive/service/library"
	"campushive/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB via pgx stdlib
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	cr := checkoutrepo.New(db)
	calr := calendarrepo.New(db)

	var nr notifyrepo.Repo = notifyrepo.Noop{}
	if cfg.NotifyURL != "" {
		nr = notifyrepo.NewHTTP(cfg.NotifyURL, cfg.NotifyAPIKey)
	}

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	ls := librarysvc.New(cr, br, ur, calr, nr, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	libraryC := &libraryctrl.Controller{Svc: ls, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Book:    bookC,
		Library: libraryC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
