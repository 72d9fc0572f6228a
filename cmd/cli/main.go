package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/cmd/cli/commands"
	"github.com/jakechorley/ninebox-weightage/internal/config"
	"github.com/jakechorley/ninebox-weightage/pkg/blob"
	"github.com/jakechorley/ninebox-weightage/pkg/clients/sheetsclient"
	"github.com/jakechorley/ninebox-weightage/pkg/db"
	"github.com/jakechorley/ninebox-weightage/pkg/metrics"
	"github.com/jakechorley/ninebox-weightage/pkg/postgres"
	"github.com/jakechorley/ninebox-weightage/pkg/sheetssql"
	"github.com/jakechorley/ninebox-weightage/pkg/sources/sheetsource"
	"github.com/jakechorley/ninebox-weightage/pkg/sources/yamlsource"
	"github.com/jakechorley/ninebox-weightage/pkg/sqlite"
	"github.com/jakechorley/ninebox-weightage/pkg/utils/logging"
)

var env string

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:          "ninebox",
		Short:        "Ninebox CLI - Manage 9-box weightage templates",
		Long:         `A CLI tool for allocating department weightage budgets across the performance and potential axes, teams and key results.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	commands.Register(rootCmd, app)

	err := rootCmd.Execute()
	shutdown(app)
	if err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, catalog and export store
func initApp(app *commands.AppContext) error {
	var err error
	app.Ctx = context.Background()
	app.Now = time.Now

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("storage", app.Cfg.Storage.Driver),
		zap.String("sources", app.Cfg.Sources.Driver),
		zap.String("export", app.Cfg.Export.Driver),
		zap.Bool("enforce_team_capacity", app.Cfg.Rules.EnforceTeamCapacity))

	app.Logger.Info("Opening template store", zap.String("driver", app.Cfg.Storage.Driver))
	app.Store, err = openStore(app.Ctx, app.Cfg.Storage)
	if err != nil {
		return err
	}

	app.Logger.Info("Loading weightage catalog", zap.String("driver", app.Cfg.Sources.Driver))
	catalog, err := loadCatalog(app.Ctx, app.Cfg.Sources, app.Logger)
	if err != nil {
		return err
	}
	app.Weightages = catalog
	app.OKRs = catalog

	if app.Cfg.Export.Driver != "" {
		app.Logger.Info("Opening export store", zap.String("driver", app.Cfg.Export.Driver))
		app.Blobs, err = openBlobStore(app.Ctx, app.Cfg.Export)
		if err != nil {
			return err
		}
	}

	app.Logger.Info("Application initialized successfully")
	return nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (db.Database, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	default:
		return db.NewMemoryDB(), nil
	}
}

func loadCatalog(ctx context.Context, cfg config.SourcesConfig, logger *zap.Logger) (*yamlsource.Source, error) {
	if cfg.Driver != config.SourceSheets {
		src, err := yamlsource.Load(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		return src, nil
	}

	google, err := config.LoadGoogleClient(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	client, err := sheetsclient.NewClient(ctx, google, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	schema, err := sheetsource.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	logger.Debug("Catalog schema created", zap.Int("tables", len(schema.Tables)))

	sheetDB, err := sheetssql.Open(client, cfg.SpreadsheetID, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog spreadsheet: %w", err)
	}

	src, err := sheetsource.Load(sheetDB)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return src, nil
}

func openBlobStore(ctx context.Context, cfg config.ExportConfig) (blob.Store, error) {
	switch blob.Driver(cfg.Driver) {
	case blob.DriverS3:
		store, err := blob.NewS3(ctx, *cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 export store: %w", err)
		}
		return store, nil
	default:
		store, err := blob.NewFS(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func shutdown(app *commands.AppContext) {
	if app.Cfg != nil {
		if err := metrics.WriteTextfile(app.Cfg.MetricsTextfile); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	if app.Store != nil {
		app.Store.Close()
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
