package app

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"github.com/dreamforge-ai/dreamforge/internal/config"
	"github.com/dreamforge-ai/dreamforge/internal/db"
	"github.com/dreamforge-ai/dreamforge/internal/db/drivers"
	"github.com/dreamforge-ai/dreamforge/internal/db/models"
	"github.com/dreamforge-ai/dreamforge/internal/db/repository"
	"github.com/dreamforge-ai/dreamforge/internal/services/blobstore"
	"github.com/dreamforge-ai/dreamforge/internal/services/enhancer"
	"github.com/dreamforge-ai/dreamforge/internal/services/generations"
	"github.com/dreamforge-ai/dreamforge/internal/services/pipeline"
	"github.com/dreamforge-ai/dreamforge/internal/services/upstream"
	"github.com/dreamforge-ai/dreamforge/pkg/logger"
)

type App struct {
	db         *bun.DB
	config     *config.Config
	ctx        context.Context
	cancelFunc context.CancelFunc

	Logger *zap.Logger

	GenerationRepository repository.IGenerationRepository
	BlobStore            blobstore.Store
	Orchestrator         *upstream.Orchestrator
	Enhancer             *enhancer.Enhancer
	Store                *generations.Store
	Pipeline             *pipeline.Pipeline
}

// Option funcs used to initialize the App struct
type OptionFunc func(app *App) error

func WithDB(driver drivers.Driver) OptionFunc {
	return func(app *App) error {
		app.db = driver.GetDB()
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(app *App) error {
		app.Logger = logger
		return nil
	}
}

func WithDBInitialization() OptionFunc {
	return func(app *App) error {
		if app.db == nil {
			driver, err := db.NewConnection(app.ctx, app.config)
			if err != nil {
				return err
			}
			app.db = driver.GetDB()
		}

		app.db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithEnabled(false),
			bundebug.FromEnv(),
		))

		if _, err := app.db.NewCreateTable().
			Model((*models.Generation)(nil)).
			IfNotExists().
			Exec(app.ctx); err != nil {
			return fmt.Errorf("failed to create generations table: %w", err)
		}

		app.GenerationRepository = repository.NewGenerationRepository(app.db)

		return nil
	}
}

func WithBlobStore() OptionFunc {
	return func(app *App) error {
		blobs, err := blobstore.NewBlobStore(app.config, app.Logger)
		if err != nil {
			return err
		}
		app.BlobStore = blobs
		return nil
	}
}

func WithUpstream() OptionFunc {
	return func(app *App) error {
		stub := upstream.NewHTTPStub(app.config.Upstream.Scheme)
		app.Orchestrator = upstream.NewOrchestrator(stub, app.config.Upstream, app.Logger)
		return nil
	}
}

func WithEnhancer() OptionFunc {
	return func(app *App) error {
		if app.config.OpenAI == nil {
			return fmt.Errorf("openai config is not set, prompts will not be enhanced")
		}

		app.Enhancer = enhancer.NewEnhancer(app.config.OpenAI, app.Logger)
		return nil
	}
}

// WithServices wires the generation store and the pipeline on top of the
// repositories and clients created by the earlier options.
func WithServices() OptionFunc {
	return func(app *App) error {
		if app.GenerationRepository == nil || app.BlobStore == nil {
			return fmt.Errorf("database and blob store must be initialized before services")
		}

		app.Store = generations.NewStore(app.GenerationRepository, app.BlobStore, app.Logger)

		if app.Orchestrator != nil {
			var promptEnhancer pipeline.Enhancer
			if app.Enhancer != nil {
				promptEnhancer = app.Enhancer
			}
			app.Pipeline = pipeline.NewPipeline(app.Orchestrator, promptEnhancer, app.BlobStore, app.Store, app.Logger)
		}

		return nil
	}
}

func NewApp(config *config.Config, options ...OptionFunc) (*App, error) {
	logger, err := logger.InitLogger(config)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		ctx:        ctx,
		config:     config,
		Logger:     logger,
		cancelFunc: cancel,
	}

	// Apply all options
	for _, opt := range options {
		if err := opt(app); err != nil {
			// Continue even if some options fail
			app.Logger.Error("failed to apply option", zap.Error(err))
		}
	}

	return app, nil
}

func (app *App) Close() {
	app.cancelFunc()

	if app.db != nil {
		app.db.Close()
	}
}

func (app *App) Config() *config.Config {
	return app.config
}

func (app *App) Context() context.Context {
	return app.ctx
}

func (app *App) DB() *bun.DB {
	return app.db
}
