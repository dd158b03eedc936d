package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/food-delivery-auth/internal/auth"
	"github.com/iliyamo/food-delivery-auth/internal/config"
	"github.com/iliyamo/food-delivery-auth/internal/database"
	"github.com/iliyamo/food-delivery-auth/internal/handler"
	"github.com/iliyamo/food-delivery-auth/internal/queue"
	"github.com/iliyamo/food-delivery-auth/internal/repository"
	"github.com/iliyamo/food-delivery-auth/internal/router"
	"github.com/iliyamo/food-delivery-auth/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	codec := auth.NewCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTLSec)

	svc := service.New(
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		repository.NewProfileRepo(db),
		codec,
		service.Config{BcryptCost: cfg.BcryptCost, RefreshTTLDays: cfg.RefreshTTLDays},
		queue.PublishAuthEvent,
	)

	// Background maintenance: audit-log consumer and expired-token sweeper.
	go queue.StartAuthEventConsumer()
	go service.StartSweeper(context.Background(), svc, time.Duration(cfg.SweepIntervalMin)*time.Minute)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), codec, config.LoadRateLimitConfig(), config.NewRedisClient())

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
