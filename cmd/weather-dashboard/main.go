package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"weather-avf/config"
	"weather-avf/internal/catalog"
	v1 "weather-avf/internal/controllers/http/v1"
	"weather-avf/internal/loader"
	"weather-avf/internal/metrics"
	"weather-avf/internal/repositories"
	"weather-avf/internal/scheduler"
	"weather-avf/internal/services/weather"
	"weather-avf/pkg/httpserver"
	"weather-avf/pkg/logger"
	"weather-avf/pkg/observe"
)

// @title Weather Forecast vs Actual API
// @version 1.0.0
// @description Compares National Weather Service forecasts with observed weather per airport.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8050
// @BasePath /
// @schemes http https

// @tag.name Weather
// @tag.description Forecast vs actual weather operations
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		logger.NewZapLogger("weather-dashboard", os.Stderr).Fatal("cannot load config", map[string]any{"err": err.Error()})
	}

	writers := []io.Writer{os.Stdout}
	hook := observe.NewSentryHook(cnf.App.Env, cnf.App.Name, 0, cnf.Sentry.Debug, cnf.Sentry.DSN)
	if hook != nil {
		writers = append(writers, hook)
	}
	l := logger.New(logger.Options{
		AppName: cnf.App.Name,
		AppEnv:  cnf.App.Env,
		Level:   cnf.Log.Level,
		Writers: writers,
	})
	if hook != nil {
		hook.SetLogger(logger.New(logger.Options{AppName: cnf.App.Name, AppEnv: cnf.App.Env}))
	}

	airports, err := catalog.Load(cnf.CatalogPath())
	if err != nil {
		l.Fatal("cannot load airport catalog", map[string]any{"err": err.Error(), "catalog": cnf.CatalogPath()})
	}

	db, err := repositories.OpenSQLite(cnf.DBPath())
	if err != nil {
		l.Fatal("cannot open store", map[string]any{"err": err.Error(), "db": cnf.DBPath()})
	}
	repo := repositories.NewSQLiteRepository(db, l)

	m := metrics.New(true)
	var registry *prometheus.Registry
	if cnf.Metrics.Enabled {
		registry = m.Registry()
	}

	service := weather.NewWeatherService(repo, airports, weather.Options{
		EarliestDate:   cnf.EarliestDate(),
		DefaultAirport: cnf.Dashboard.DefaultAirport,
		WindowDays:     cnf.Dashboard.WindowDays,
	}, m, l)

	app := httpserver.InitFiberServer(httpserver.Options{
		AppName:      cnf.App.Name,
		Views:        v1.NewViews(),
		ReadTimeout:  cnf.ReadTimeout(),
		WriteTimeout: cnf.WriteTimeout(),
		IdleTimeout:  cnf.IdleTimeout(),
		Ready:        func() bool { return db.PingContext(ctx) == nil },
	})

	v1.NewRouter(
		app,
		service,
		cnf.Dashboard.BasePath,
		registry,
		l,
	)

	var sched *scheduler.Scheduler
	if cnf.Loader.ScheduleEnabled {
		sched = scheduler.New(
			loader.New(repo, cnf.Storage.DataRoot, airports.Codes(), m, l),
			cnf.Loader.PullHour,
			time.Local,
			l,
		)
		if err := sched.Start(ctx); err != nil {
			l.Fatal("cannot start loader schedule", map[string]any{"err": err.Error()})
		}
		if cnf.Loader.RunOnStart {
			sched.RunNow()
		}
	}

	go func() {
		if err := app.Listen(cnf.Addr()); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"addr":      cnf.Addr(),
		"base_path": cnf.Dashboard.BasePath,
		"airports":  airports.Len(),
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		cancel()
		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		_ = repo.Close()
		hook.Flush()
		_ = l.Stop()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
