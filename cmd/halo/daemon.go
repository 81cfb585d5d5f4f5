package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/halocache/halo/internal/cache"
	"github.com/halocache/halo/internal/config"
	"github.com/halocache/halo/internal/logging"
	"github.com/halocache/halo/internal/metrics"
	"github.com/halocache/halo/internal/service"
	"github.com/halocache/halo/internal/store"
)

func daemonCmd() *cobra.Command {
	var (
		httpAddr     string
		logLevel     string
		capacity     int
		defaultTTL   time.Duration
		singleflight bool
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the Halo cache daemon",
		Long:  "Serve a key-value read/write API backed by the configured store, with cache-aside reads and write invalidation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				var err error
				cfg, err = config.LoadFromFile(configFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			config.LoadFromEnv(cfg)

			if cmd.Flags().Changed("http") {
				cfg.Daemon.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Daemon.LogLevel = logLevel
			}
			if cmd.Flags().Changed("capacity") {
				cfg.Cache.Capacity = capacity
			}
			if cmd.Flags().Changed("default-ttl") {
				cfg.Cache.DefaultTTL = config.Duration(defaultTTL)
			}

			logging.InitStructured(cfg.Observability.Logging.Format, cfg.EffectiveLogLevel())

			if cfg.Observability.Metrics.Enabled {
				metrics.InitPrometheus(cfg.Observability.Metrics.Namespace, cfg.Observability.Metrics.Buckets)
			}

			kv, err := buildStore(cfg)
			if err != nil {
				return err
			}
			defer kv.Close()

			c, closeCache := buildCache(cfg)
			defer closeCache()

			opts := []service.Option[string, []byte]{}
			if singleflight {
				opts = append(opts, service.WithSingleflight[string, []byte](func(k string) string { return k }))
			}
			svc := service.New[string, []byte](c, kv, opts...)

			mux := http.NewServeMux()
			mux.HandleFunc("GET /kv/{key}", handleGet(svc))
			mux.HandleFunc("PUT /kv/{key}", handlePut(svc))
			mux.HandleFunc("DELETE /kv/{key}", handleDelete(svc))
			mux.Handle("GET /metrics", metrics.PrometheusHandler())
			mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
				if err := kv.Ping(r.Context()); err != nil {
					http.Error(w, err.Error(), http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			})

			server := &http.Server{Addr: cfg.Daemon.HTTPAddr, Handler: mux}
			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			logging.Op().Info("halo daemon started",
				"addr", cfg.Daemon.HTTPAddr,
				"backend", cfg.Store.Backend,
				"capacity", cfg.Cache.Capacity,
				"default_ttl", cfg.Cache.DefaultTTL.Std(),
				"shards", cfg.Cache.Shards)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case err := <-errCh:
					return fmt.Errorf("http server: %w", err)
				case <-sigCh:
					logging.Op().Info("shutdown signal received")
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				case <-ticker.C:
					metrics.SetEntries(c.Len())
				}
			}
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	cmd.Flags().IntVar(&capacity, "capacity", 1024, "Maximum number of cached entries")
	cmd.Flags().DurationVar(&defaultTTL, "default-ttl", 5*time.Minute, "Default entry TTL")
	cmd.Flags().BoolVar(&singleflight, "singleflight", false, "Collapse concurrent store fetches per key")

	return cmd
}

func buildStore(cfg *config.Config) (store.KV, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		logging.Op().Info("using in-memory store")
		return store.NewMemory(nil), nil
	case "postgres":
		logging.Op().Info("using Postgres store")
		return store.NewPostgres(context.Background(), cfg.Store.Postgres.DSN)
	case "redis":
		logging.Op().Info("using Redis store")
		return store.NewRedis(store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildCache(cfg *config.Config) (cache.Interface[string, []byte], func() error) {
	onEvict := cache.WithOnEvict[string, []byte](func(_ string, _ []byte, reason cache.EvictReason) {
		metrics.RecordEviction(reason.String())
	})
	ttl := cfg.Cache.DefaultTTL.Std()
	sweep := cfg.Cache.SweepInterval.Std()

	if cfg.Cache.Shards > 1 {
		c := cache.NewSharded[[]byte](cfg.Cache.Shards, cfg.Cache.Capacity, ttl, onEvict)
		if sweep > 0 {
			c.StartSweeper(sweep)
		}
		return c, c.Close
	}

	c := cache.New[string, []byte](cfg.Cache.Capacity, ttl, onEvict)
	if sweep > 0 {
		c.StartSweeper(sweep)
	}
	return c, c.Close
}

func handleGet(svc *service.Service[string, []byte]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		log := logging.WithRequest(uuid.NewString())

		value, found, err := svc.Read(r.Context(), key)
		if err != nil {
			log.Error("read failed", "key", key, "error", err)
			http.Error(w, "store error", http.StatusBadGateway)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(value)
	}
}

func handlePut(svc *service.Service[string, []byte]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		log := logging.WithRequest(uuid.NewString())

		value, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		if err := svc.Write(r.Context(), key, value); err != nil {
			log.Error("write failed", "key", key, "error", err)
			http.Error(w, "store error", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDelete(svc *service.Service[string, []byte]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		log := logging.WithRequest(uuid.NewString())

		if err := svc.Delete(r.Context(), key); err != nil {
			log.Error("delete failed", "key", key, "error", err)
			http.Error(w, "store error", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
