package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "plant_telemetry/docs"
	"plant_telemetry/internal/config"
	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/handlers"
	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/predict"
	"plant_telemetry/internal/publisher"
	"plant_telemetry/internal/repository"
	"plant_telemetry/internal/repository/db"
	"plant_telemetry/internal/server"
	"plant_telemetry/internal/service"
	"plant_telemetry/internal/weather"
)

// @title                       Plant Telemetry API
// @version                     1.0
// @description                 Reconciled plant sensor, weather and watering-prediction views.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.Options{Level: logger.InfoLevel}).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Name: cfg.Log.Name})

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	pub, err := publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Fatalw("failed to init kafka publisher", "err", err)
	}
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			log.Errorw("failed to close publisher", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	registry := engine.NewRegistry(engine.Options{
		PredictionCapacity: cfg.Poll.PredictionCapacity,
		TrendWindow:        cfg.Poll.TrendWindow,
		Policy:             cfg.Health.Policy(),
	})
	services := service.NewService(repos, service.Deps{
		Registry:  registry,
		Weather:   weather.New(cfg.Weather.BaseURL, cfg.Weather.UserAgent, cfg.Weather.Timeout),
		Predictor: predict.NewHeuristic(),
		Publisher: pub,
		Log:       log,
		Auth: service.AuthSettings{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
		},
		Poll: service.PollSettings{
			SensorInterval:  cfg.Poll.SensorInterval,
			HealthInterval:  cfg.Poll.HealthInterval,
			WeatherInterval: cfg.Poll.WeatherInterval,
			HistoryLimit:    cfg.Poll.HistoryLimit,
			Latitude:        cfg.Weather.Latitude,
			Longitude:       cfg.Weather.Longitude,
		},
	})
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go services.Poller.Run(ctx)
	if cfg.Simulator.Enabled {
		log.Infow("simulator_enabled", "interval", cfg.Simulator.Interval)
		go services.Simulator.Run(ctx, cfg.Simulator.Interval)
	}

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http_listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
