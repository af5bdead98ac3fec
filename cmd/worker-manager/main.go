// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agriloan-workers/internal/common/auth"
	"agriloan-workers/internal/common/camunda"
	"agriloan-workers/internal/common/config"
	"agriloan-workers/internal/common/database"
	"agriloan-workers/internal/common/logger"
	"agriloan-workers/internal/common/observability"
	"agriloan-workers/internal/repository"
	"agriloan-workers/internal/search"
	createapplicationrecord "agriloan-workers/internal/workers/application/create-application-record"
	deleteapplication "agriloan-workers/internal/workers/application/delete-application"
	queryapplications "agriloan-workers/internal/workers/application/query-applications"
	searchapplications "agriloan-workers/internal/workers/application/search-applications"
	scoreapplication "agriloan-workers/internal/workers/assessment/score-application"
	validateapplication "agriloan-workers/internal/workers/assessment/validate-application"
	calculatesuggestedrange "agriloan-workers/internal/workers/decision/calculate-suggested-range"
	commitdecision "agriloan-workers/internal/workers/decision/commit-decision"
	senddecisionnotification "agriloan-workers/internal/workers/decision/send-decision-notification"
	"agriloan-workers/pkg/registry"
)

var jobWorkers []*camunda.Worker

// retryWithBackoff retries an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = operation()
		if err == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retries",
					zap.String("operation", operationName),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		log.Warn("operation failed, retrying",
			zap.String("operation", operationName),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextDelay", delay),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// The activity registry is the catalog of task types this manager is
	// expected to serve. A worker enabled in config but absent from the
	// registry is a deployment mistake worth surfacing at startup.
	reg, err := registry.LoadRegistry("configs/activity-registry.json")
	if err != nil {
		zapLog.Warn("activity registry not loaded", zap.Error(err))
	} else {
		zapLog.Info("activity registry loaded",
			zap.String("version", reg.Version),
			zap.Int("activities", len(reg.Activities)))
		for taskType, wcfg := range cfg.Workers {
			if wcfg.Enabled && reg.FindByTaskType(taskType) == nil {
				zapLog.Warn("enabled worker missing from activity registry",
					zap.String("taskType", taskType))
			}
		}
	}

	// Zeebe gateway.
	var camClient *camunda.Client
	err = retryWithBackoff(func() error {
		var cerr error
		camClient, cerr = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return cerr
	}, 10, 2*time.Second, zapLog, "zeebe client connection")
	if err != nil {
		zapLog.Fatal("failed to connect to zeebe", zap.Error(err))
	}
	defer camClient.Close()
	zeebeClient := camClient.GetClient()

	// PostgreSQL is the system of record for applications and decisions.
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var perr error
		pg, perr = database.NewPostgres(cfg.Database.Postgres)
		if perr != nil {
			return perr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "postgres connection")
	if err != nil {
		zapLog.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	// Elasticsearch mirrors application summaries for the search worker.
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var eerr error
		es, eerr = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if eerr != nil {
			return eerr
		}
		return es.Ping()
	}, 15, 2*time.Second, zapLog, "elasticsearch connection")
	if err != nil {
		zapLog.Fatal("failed to connect to elasticsearch", zap.Error(err))
	}

	// Redis caches suggested ranges between reviewer screens.
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var rerr error
		rdb, rerr = database.NewRedis(cfg.Database.Redis)
		if rerr != nil {
			return rerr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "redis connection")
	if err != nil {
		zapLog.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	repo := repository.NewApplicationRepository(pg.DB, log)
	index := search.NewApplicationIndex(es.Client, cfg.Search.ApplicationsIndex, log)

	// --- Assessment workers ---

	if config.IsWorkerEnabled(cfg, validateapplication.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, validateapplication.TaskType)
		handlerCfg := validateapplication.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		handler := validateapplication.NewHandler(handlerCfg, log)
		startWorker(zeebeClient, validateapplication.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, scoreapplication.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, scoreapplication.TaskType)
		handlerCfg := scoreapplication.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		handler := scoreapplication.NewHandler(handlerCfg, log)
		startWorker(zeebeClient, scoreapplication.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- Application record workers ---

	if config.IsWorkerEnabled(cfg, createapplicationrecord.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, createapplicationrecord.TaskType)
		handlerCfg := createapplicationrecord.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		handler := createapplicationrecord.NewHandler(handlerCfg, repo, index, log)
		startWorker(zeebeClient, createapplicationrecord.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, queryapplications.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, queryapplications.TaskType)
		handlerCfg := queryapplications.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		handler := queryapplications.NewHandler(handlerCfg, repo, log)
		startWorker(zeebeClient, queryapplications.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, searchapplications.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, searchapplications.TaskType)
		handlerCfg := searchapplications.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		handler := searchapplications.NewHandler(handlerCfg, index, log)
		startWorker(zeebeClient, searchapplications.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, deleteapplication.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, deleteapplication.TaskType)
		handlerCfg := deleteapplication.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if len(cfg.Auth.ReviewerRoles) > 0 {
			handlerCfg.AllowedRoles = cfg.Auth.ReviewerRoles
		}
		handler := deleteapplication.NewHandler(handlerCfg, repo, index, log)
		startWorker(zeebeClient, deleteapplication.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- Decision workers ---

	if config.IsWorkerEnabled(cfg, calculatesuggestedrange.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, calculatesuggestedrange.TaskType)
		handlerCfg := calculatesuggestedrange.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if cfg.Decision.RangeCacheTTL > 0 {
			handlerCfg.CacheTTL = time.Duration(cfg.Decision.RangeCacheTTL) * time.Second
		}
		handler := calculatesuggestedrange.NewHandler(handlerCfg, repo, rdb.Client, log)
		startWorker(zeebeClient, calculatesuggestedrange.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, commitdecision.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, commitdecision.TaskType)
		handlerCfg := commitdecision.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if len(cfg.Auth.ReviewerRoles) > 0 {
			handlerCfg.AllowedRoles = cfg.Auth.ReviewerRoles
		}
		handler := commitdecision.NewHandler(handlerCfg, repo, keycloak, log)
		startWorker(zeebeClient, commitdecision.TaskType, wcfg, handler.Handle, zapLog)
	}

	if config.IsWorkerEnabled(cfg, senddecisionnotification.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, senddecisionnotification.TaskType)
		handlerCfg := senddecisionnotification.LoadConfig()
		if wcfg.Timeout > 0 {
			handlerCfg.Timeout = config.GetDuration(wcfg.Timeout)
		}
		if cfg.Integrations.AWS.Region != "" {
			handlerCfg.AWSRegion = cfg.Integrations.AWS.Region
		}
		handlerCfg.EmailEnabled = cfg.Notifications.Email.Enabled
		handlerCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
		if cfg.Notifications.Email.FromEmail != "" {
			handlerCfg.FromEmail = cfg.Notifications.Email.FromEmail
		}
		handler, herr := senddecisionnotification.NewHandler(handlerCfg, log)
		if herr != nil {
			zapLog.Error("failed to initialize notification worker", zap.Error(herr))
		} else {
			startWorker(zeebeClient, senddecisionnotification.TaskType, wcfg, handler.Handle, zapLog)
		}
	}

	// Health and metrics endpoint.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "healthy",
				"service": cfg.App.Name,
				"version": cfg.App.Version,
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "reason": "postgres"})
				return
			}
			if err := camClient.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "not ready", "reason": "zeebe"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
		})
		mux.Handle("/metrics", promhttp.Handler())

		zapLog.Info("health server listening", zap.String("addr", ":8080"))
		if err := http.ListenAndServe(":8080", mux); err != nil {
			zapLog.Error("health server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("worker manager started, waiting for jobs",
		zap.Int("workers", len(jobWorkers)))

	// Graceful shutdown on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	for _, w := range jobWorkers {
		w.Close()
	}
	zapLog.Info("worker manager stopped")
}

// startWorker opens a job worker for the given task type and tracks it for
// shutdown.
func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.JobHandlerFunc, log *zap.Logger) {
	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 32
	}
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	w := camunda.NewWorker(client, taskType, maxJobs, timeout, handlerFunc, log)
	jobWorkers = append(jobWorkers, w)
}
