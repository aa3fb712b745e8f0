package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/clients/cache"
	"max.ks1230/expense-tracker/internal/clients/frankfurter"
	"max.ks1230/expense-tracker/internal/config"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/ledger"
	"max.ks1230/expense-tracker/internal/model/rates"
	"max.ks1230/expense-tracker/internal/model/report"
	"max.ks1230/expense-tracker/internal/model/storage"
	"max.ks1230/expense-tracker/internal/tracing"
)

const serviceName = "expense-tracker"

func main() {
	logger.Info("Tracker init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}

	closer, err := tracing.Init(serviceName)
	if err != nil {
		logger.Warn("failed to init tracing", zap.Error(err))
	} else {
		defer closer.Close()
	}

	gw, err := storage.New(conf.Storage().Backend(), conf.Postgres(), conf.SQLite())
	if err != nil {
		logger.Fatal("failed to init storage:", zap.Error(err))
	}

	var rateCache rates.Cache
	if len(conf.Memcached().Hosts()) > 0 {
		mc, err := cache.NewMemcache(conf.Memcached())
		if err != nil {
			logger.Warn("failed to init memcached, rates will not be cached", zap.Error(err))
		} else {
			rateCache = mc
		}
	}

	provider := rates.NewProvider(frankfurter.New(conf.Frankfurter()), rateCache)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	led := ledger.New(gw, provider, conf.App())
	if err = led.Hydrate(ctx); err != nil {
		logger.Fatal("failed to hydrate ledger:", zap.Error(err))
	}
	led.Subscribe(func(snap ledger.Snapshot) {
		summary := report.Summarize(snap)
		logger.Info("ledger updated",
			zap.Int("records", len(snap.Records)),
			zap.String("base", summary.BaseCurrency),
			zap.Float64("total", summary.Total))
	})

	go serveMetrics(conf.App().MetricsAddr())

	logger.Info("Tracker init - end",
		zap.String("base", led.BaseCurrency()),
		zap.Int("records", len(led.Snapshot().Records)))

	<-ctx.Done()
	logger.Info("Tracker shutdown")
}

func serveMetrics(addr string) {
	if addr == "" {
		addr = "127.0.0.1:9100"
	}
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
