package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/application/panel"
	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/application/services"
	domainconfig "github.com/Rysh-29/Neuromap/domain/config"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/domain/core/validators"
	"github.com/Rysh-29/Neuromap/infrastructure/config"
	"github.com/Rysh-29/Neuromap/infrastructure/export"
	"github.com/Rysh-29/Neuromap/infrastructure/persistence"
	"github.com/Rysh-29/Neuromap/infrastructure/persistence/kv"
	"github.com/Rysh-29/Neuromap/infrastructure/scheduler"
	"github.com/Rysh-29/Neuromap/interfaces/http/rest"
	"github.com/Rysh-29/Neuromap/pkg/observability"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "neuromap"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = level
	}

	return zapCfg.Build()
}

// ProvideMetrics creates the Prometheus metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(MetricsNamespace)
}

// ProvideDomainConfig returns the diagram limits for the configured environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideKeyValueStore opens the configured storage backend. Every backend
// except memory is guarded by the circuit breaker when it is enabled.
func ProvideKeyValueStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.KeyValueStore, func(), error) {
	var (
		store   ports.KeyValueStore
		cleanup = func() {}
	)

	switch cfg.StorageBackend {
	case config.BackendMemory:
		return kv.NewMemoryStore(), cleanup, nil

	case config.BackendFile:
		fileStore, err := kv.NewFileStore(cfg.DataDir, logger)
		if err != nil {
			return nil, nil, err
		}
		store = fileStore

	case config.BackendSQLite:
		sqliteStore, err := kv.NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = sqliteStore
		cleanup = func() {
			if err := sqliteStore.Close(); err != nil {
				logger.Warn("Failed to close SQLite store", zap.Error(err))
			}
		}

	case config.BackendDynamoDB:
		awsCfg, err := ProvideAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		store = kv.NewDynamoDBStore(ProvideDynamoDBClient(awsCfg), cfg.DynamoDBTable, logger)

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	logger.Info("Storage backend ready", zap.String("backend", cfg.StorageBackend))

	if !cfg.BreakerEnabled {
		return store, cleanup, nil
	}
	breakerCfg := kv.DefaultBreakerConfig("storage-" + cfg.StorageBackend)
	breakerCfg.Timeout = cfg.BreakerTimeout
	breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	breakerCfg.MinRequests = cfg.BreakerMinRequests
	return kv.NewBreakerStore(store, breakerCfg, logger), cleanup, nil
}

// ProvideSnapshotValidator creates the validator that repairs stored maps
func ProvideSnapshotValidator(domainCfg *domainconfig.DomainConfig) *validators.SnapshotValidator {
	return validators.NewSnapshotValidator(domainCfg)
}

// ProvideMapStorage creates the persistence adapter
func ProvideMapStorage(
	store ports.KeyValueStore,
	validator *validators.SnapshotValidator,
	logger *zap.Logger,
	metrics *observability.Collector,
) *persistence.MapStorage {
	return persistence.NewMapStorage(store, validator, logger, metrics)
}

// ProvideScheduler creates the auto-save debouncer
func ProvideScheduler(cfg *config.Config) ports.Scheduler {
	return scheduler.NewDebouncer(cfg.AutoSaveDelay)
}

// ProvideRenderers creates the export renderers
func ProvideRenderers(cfg *config.Config, logger *zap.Logger) ([]ports.Renderer, error) {
	opts := export.DefaultPNGOptions()
	opts.Width = cfg.ExportWidth
	opts.Height = cfg.ExportHeight

	png, err := export.NewPNGRenderer(opts)
	if err != nil {
		return nil, err
	}
	return []ports.Renderer{png, export.NewMarkdownRenderer("", logger)}, nil
}

// ProvideCanvasController creates the controller and loads the stored map
func ProvideCanvasController(
	ctx context.Context,
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	storage ports.MapStorage,
	autosave ports.Scheduler,
	renderers []ports.Renderer,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.CanvasController {
	controller := services.NewCanvasController(storage, autosave, logger,
		services.WithDomainConfig(domainCfg),
		services.WithConfirmations(services.NewConfirmations(cfg.ConfirmationTTL, time.Now)),
		services.WithCanvasSize(valueobjects.CanvasSize{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight}),
		services.WithRenderers(renderers...),
		services.WithExportDir(cfg.ExportDir),
		services.WithMetrics(metrics),
	)
	controller.Initialize(ctx)
	return controller
}

// ProvideDetailPanel creates the node detail panel
func ProvideDetailPanel(controller *services.CanvasController, logger *zap.Logger) *panel.DetailPanel {
	return panel.NewDetailPanel(controller, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	controller *services.CanvasController,
	detailPanel *panel.DetailPanel,
	metrics *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(controller, detailPanel, metrics, rest.Options{
		EnableCORS:    cfg.EnableCORS,
		EnableMetrics: cfg.EnableMetrics,
		Debug:         cfg.IsDevelopment(),

		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)
}
