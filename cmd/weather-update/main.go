package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"weather-avf/config"
	"weather-avf/internal/catalog"
	"weather-avf/internal/loader"
	"weather-avf/internal/metrics"
	"weather-avf/internal/repositories"
	"weather-avf/pkg/logger"
	"weather-avf/pkg/observe"
)

const pushJob = "weather-update"

// weather-update appends new extract files under the data root to the store.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cnf, err := config.NewConfig()
	if err != nil {
		logger.NewZapLogger("weather-update", os.Stderr).Error(err)
		return 1
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
	defer func() {
		hook.Flush()
		_ = l.Stop()
	}()

	airports, err := catalog.Load(cnf.CatalogPath())
	if err != nil {
		l.Error(err, map[string]any{"catalog": cnf.CatalogPath()})
		return 1
	}

	db, err := repositories.OpenSQLite(cnf.DBPath())
	if err != nil {
		l.Error(err, map[string]any{"db": cnf.DBPath()})
		return 1
	}
	repo := repositories.NewSQLiteRepository(db, l)
	defer repo.Close()

	m := metrics.New(false)

	_, runErr := loader.New(repo, cnf.Storage.DataRoot, airports.Codes(), m, l).Run(ctx)

	if cnf.Metrics.Enabled && cnf.Metrics.PushGatewayURL != "" {
		if err := m.Push(cnf.Metrics.PushGatewayURL, pushJob); err != nil {
			l.Warning("could not push metrics", map[string]any{"err": err.Error(), "url": cnf.Metrics.PushGatewayURL})
		}
	}

	if runErr != nil {
		l.Error(runErr, map[string]any{"input_error": loader.IsInputError(runErr)})
		return 1
	}

	return 0
}
