package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/camoo/enkap-go/pkg/enkap/cache/postgres"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const (
	appName string = "enkap-token-cleaner"
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	log.Debug("begin purge of expired tokens", slog.Time("start_time", time.Now()))

	p, err := postgres.Connect(ctx, postgres.LoadConfiguration(ctx))
	if err != nil {
		log.Error("failed to connect to database", "err", err.Error())
		os.Exit(1)
	}
	defer p.Close()

	backend, err := postgres.New(ctx, p)
	if err != nil {
		log.Error("failed to prepare token cache table", "err", err.Error())
		os.Exit(1)
	}

	count, err := backend.Purge(ctx)
	if err != nil {
		log.Error("failed to purge expired tokens", "err", err.Error())
		os.Exit(1)
	}

	log.Debug("vacuum")

	err = backend.Vacuum(ctx)
	if err != nil {
		log.Error("failed to vacuum table", "err", err.Error())
		os.Exit(1)
	}

	log.Info("done purging expired tokens", slog.Int64("total", count), slog.Time("end_time", time.Now()))
}
