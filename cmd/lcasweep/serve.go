package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/collector"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/metrics"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/rpc"
	"github.com/GoSim-25-26J-441/lca-sweep/internal/store"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
)

const shutdownTimeout = 10 * time.Second

// fileResults reloads the results document on every request so runs
// finished by a concurrent `run` are visible.
type fileResults string

func (p fileResults) Load() ([]models.ExperimentGroup, error) {
	return store.Load(string(p))
}

func serveCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs, global := newFlagSet("serve")
	grpcAddr := fs.String("grpc-addr", "", "gRPC listen address (overrides grpc.addr)")
	metricsAddr := fs.String("metrics-addr", "", "metrics listen address (overrides metrics.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if *grpcAddr == "" {
		*grpcAddr = cfg.GRPC.Addr
	}
	if *metricsAddr == "" {
		*metricsAddr = cfg.Metrics.Addr
	}

	ws := cfg.Workspace
	fitness := func() (map[string][]models.FitnessPoint, error) {
		return collector.ReadFitnessLogs(ws.FitnessDir, cfg.Sweep.FitnessLogs)
	}
	srv := rpc.NewExperimentServer(
		fileResults(ws.StorePath),
		store.NewConfigStore(ws.RunConfigsPath, ws.MainDir),
		fitness,
		cfg.Sweep.MultiObjectiveAlgorithm,
	)

	// TODO: add TLS and authentication before exposing the query API beyond localhost.
	grpcServer, health := rpc.NewGRPCServer(srv)

	lis, err := net.Listen("tcp", *grpcAddr)
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		logger.Info("gRPC server listening", "addr", *grpcAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", "error", err)
			stop()
		}
	}()

	var httpSrv *http.Server
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			metrics.NewStoreCollector(fileResults(ws.StorePath).Load),
		)
		httpSrv = startMetricsServer(*metricsAddr, reg, stop)
	}

	<-ctx.Done()
	logger.Info("shutdown requested")

	health.Shutdown()
	grpcServer.GracefulStop()
	if httpSrv != nil {
		shutdownHTTP(httpSrv)
	}
	return nil
}

// startMetricsServer exposes g on /metrics. onError is called if the server
// stops unexpectedly.
func startMetricsServer(addr string, g prometheus.Gatherer, onError func()) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
			if onError != nil {
				onError()
			}
		}
	}()
	return srv
}

func shutdownHTTP(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics shutdown error", "error", err)
	}
}
