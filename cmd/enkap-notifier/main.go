package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camoo/enkap-go/internal/pkg/infrastructure/router"
	"github.com/camoo/enkap-go/internal/pkg/notifications"
	"github.com/camoo/enkap-go/internal/pkg/presentation/api/notify"
	"github.com/camoo/enkap-go/pkg/enkap/config"
	"github.com/camoo/enkap-go/pkg/enkap/services"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const serviceName string = "enkap-notifier"

func defaultFlags() FlagMap {
	return FlagMap{
		listenAddress: "",
		servicePort:   "8080",

		configPath: "",
		opaPath:    "/opt/enkap/config/authz.rego",
	}
}

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion, "json")
	defer cleanup()

	flags := parseExternalConfig(ctx, defaultFlags())

	cfg, err := loadConfig(ctx, flags[configPath])
	if err != nil {
		log.Error("failed to load configuration", "err", err.Error())
		os.Exit(1)
	}

	api, err := services.NewAPI(ctx, cfg)
	if err != nil {
		log.Error("failed to create enkap api", "err", err.Error())
		os.Exit(1)
	}
	defer api.Close()

	notifier, err := notifications.NewNotifier(ctx, api.Statuses, notifications.LogStatus)
	if err != nil {
		log.Error("failed to create notifier", "err", err.Error())
		os.Exit(1)
	}

	notifier.Start()
	defer notifier.Stop()

	policies, err := os.Open(flags[opaPath])
	if err != nil {
		log.Error("unable to open opa policy file", "err", err.Error())
		os.Exit(1)
	}
	defer policies.Close()

	r := router.New(ctx, serviceName)

	if err = notify.RegisterHandlers(ctx, r, policies, notifier, api.Statuses); err != nil {
		log.Error("failed to register notification handlers", "err", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              net.JoinHostPort(flags[listenAddress], flags[servicePort]),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("starting to listen for notifications", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to listen for connections", "err", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shut down", "err", err.Error())
	}
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnvironment(ctx), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open configuration file: %w", err)
	}
	defer f.Close()

	cfg, err := config.LoadConfiguration(f)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvironment(ctx)

	return cfg, nil
}
