package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	petstore "github.com/afinana/go-server-petstore"
	"github.com/afinana/go-server-petstore/httpapi"
	"github.com/afinana/go-server-petstore/kv"
	"github.com/afinana/go-server-petstore/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg := petstore.DefaultConfig()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			_, _ = os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
	}
	cfg.LoadEnv()

	log := utils.NewDefaultLogger(cfg.SlogLevel())
	prometheus.MustRegister(petstore.Metrics()...)

	client, err := kv.Open(kv.Options{
		Addr:           cfg.RedisAddr,
		ConnectTimeout: cfg.ConnectTimeout.Duration,
		ReadTimeout:    cfg.ReadTimeout.Duration,
		WriteTimeout:   cfg.WriteTimeout.Duration,
	}, log)
	if err != nil {
		log.Error("failed to connect to the store", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}
	defer client.Close()

	store := petstore.NewStore(client, log)
	api := httpapi.NewServer(store, log)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Handler(),
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	log.Info("server is running", "addr", cfg.ListenAddr)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Warn("server is down")
}
