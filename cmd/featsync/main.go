// Featsync - per-device feature toggles with entity reconciliation.
//
// This is the main entry point for the Featsync service. Featsync keeps
// an external entity registry (MQTT discovery) in step with a sparse
// device/feature matrix: enabling a feature for a device creates its
// entities, disabling removes them, and a startup pass repairs any drift
// accumulated while the service was not running.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ferrohaus/featsync/migrations"

	"github.com/ferrohaus/featsync/internal/feature"
	"github.com/ferrohaus/featsync/internal/infrastructure/config"
	"github.com/ferrohaus/featsync/internal/infrastructure/database"
	"github.com/ferrohaus/featsync/internal/infrastructure/influxdb"
	"github.com/ferrohaus/featsync/internal/infrastructure/logging"
	"github.com/ferrohaus/featsync/internal/infrastructure/mqtt"
	"github.com/ferrohaus/featsync/internal/inventory"
	"github.com/ferrohaus/featsync/internal/matrix"
	"github.com/ferrohaus/featsync/internal/reconcile"
	"github.com/ferrohaus/featsync/internal/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Featsync",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device inventory
	deviceRepo := inventory.NewSQLiteRepository(db.DB)
	deviceRegistry := inventory.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device inventory: %w", refreshErr)
	}
	log.Info("device inventory initialised", "devices", deviceRegistry.Count())

	// Load feature definitions
	featureSource, err := feature.LoadFile(cfg.Features.DefinitionsFile)
	if err != nil {
		return fmt.Errorf("loading feature definitions: %w", err)
	}
	log.Info("feature definitions loaded",
		"path", cfg.Features.DefinitionsFile,
		"features", featureSource.Count(),
	)

	// Restore the feature matrix from its persisted snapshot
	matrixStore := matrix.NewSQLiteStore(db.DB)
	snapshot, err := matrixStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading matrix snapshot: %w", err)
	}
	featureMatrix, err := matrix.FromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("restoring matrix snapshot: %w", err)
	}
	log.Info("feature matrix restored", "enabled_pairs", featureMatrix.Count())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Assemble the reconciler
	entityRegistry := registry.NewMQTTAdapter(mqttClient, cfg.Reconcile)
	entityRegistry.SetLogger(log)

	manager := reconcile.NewManager(featureMatrix, featureSource, deviceRegistry, entityRegistry)
	manager.SetLogger(log)
	manager.AddRecorder(reconcile.NewSQLiteRecorder(db.DB))
	if influxClient != nil {
		manager.AddRecorder(reconcile.NewInfluxRecorder(influxClient))
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the startup pass to repair drift accumulated while we were down
	report, err := manager.ValidateOnStartup(ctx)
	if err != nil {
		return fmt.Errorf("startup reconciliation: %w", err)
	}
	log.Info("startup reconciliation complete",
		"run_id", report.RunID,
		"created", len(report.Created),
		"removed", len(report.Removed),
		"failed", report.FailedCount(),
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Persist the matrix so the next start resumes from current state
	saveCtx := context.Background()
	if saveErr := matrixStore.Save(saveCtx, featureMatrix.Snapshot()); saveErr != nil {
		log.Error("error saving matrix snapshot", "error", saveErr)
	}

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT
	// 3. Database

	log.Info("Featsync stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FEATSYNC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FEATSYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
