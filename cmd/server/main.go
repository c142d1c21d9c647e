package main

import (
	"net/http"

	"neppay/internal/api"
	"neppay/internal/config"
	"neppay/internal/logger"
	"neppay/internal/middleware"
	"neppay/internal/payment"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.L().Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	log := logger.L()

	var khalti *payment.KhaltiGateway
	if cfg.Khalti != nil {
		khalti, err = payment.NewKhaltiGateway(cfg.Khalti.SecretKey, cfg.Sandbox())
		if err != nil {
			log.Fatal("failed to construct khalti gateway", zap.Error(err))
		}
		log.Info("khalti gateway configured", zap.String("mode", string(cfg.Mode)))
	}

	var esewa *payment.EsewaGateway
	if cfg.Esewa != nil {
		esewa, err = payment.NewEsewaGateway(cfg.Esewa.ProductCode, cfg.Esewa.SecretKey, cfg.Sandbox())
		if err != nil {
			log.Fatal("failed to construct esewa gateway", zap.Error(err))
		}
		log.Info("esewa gateway configured", zap.String("mode", string(cfg.Mode)))
	}

	var fonepay *payment.FonepayGateway
	if cfg.Fonepay != nil {
		fonepay, err = payment.NewFonepayGateway(cfg.Fonepay.MerchantID, cfg.Fonepay.SecretKey, cfg.Sandbox())
		if err != nil {
			log.Fatal("failed to construct fonepay gateway", zap.Error(err))
		}
		log.Info("fonepay gateway configured", zap.String("mode", string(cfg.Mode)))
	}

	handler := api.NewHandler(khalti, esewa, fonepay)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Mount("/payments", handler.Routes())

	log.Info("payment server running", zap.String("port", cfg.AppPort))
	if err := http.ListenAndServe(":"+cfg.AppPort, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
