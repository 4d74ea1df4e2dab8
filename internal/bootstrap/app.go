package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"cvparse-backend/internal/documents"
	"cvparse-backend/internal/extractions"
	"cvparse-backend/internal/llm"
	openai "cvparse-backend/internal/llm/openai"
	"cvparse-backend/internal/queue"
	"cvparse-backend/internal/shared/config"
	"cvparse-backend/internal/shared/server"
	"cvparse-backend/internal/shared/storage/db"
	"cvparse-backend/internal/shared/storage/object"
	localstore "cvparse-backend/internal/shared/storage/object/local"
	s3store "cvparse-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API server and the queue worker.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.ObjectStore
	Queue              queue.Client
	DocumentsRepo      documents.DocumentsRepo
	ExtractionsRepo    extractions.Repo
	DocumentsService   *documents.Service
	ExtractionsService *extractions.Service
	DocumentsHandler   *documents.Handler
	ExtractionsHandler *extractions.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		DocumentHandler:   app.DocumentsHandler,
		ExtractionHandler: app.ExtractionsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CVP_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var extractionRepo extractions.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		extractionRepo = &extractions.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		extractionRepo = extractions.NewMemoryRepo()
	}

	docSvc := &documents.Service{
		Store: app.Store,
		Repo:  docRepo,
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" && strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel, os.Getenv("OPENAI_BASE_URL"))
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}

	extractionSvc := &extractions.Service{
		Repo:     extractionRepo,
		DocRepo:  docRepo,
		Store:    app.Store,
		LLM:      llmClient,
		JobQueue: app.Queue,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
	}

	app.DocumentsRepo = docRepo
	app.ExtractionsRepo = extractionRepo
	app.DocumentsService = docSvc
	app.ExtractionsService = extractionSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ExtractionsHandler = extractions.NewHandler(extractionSvc, docRepo)

	if app.DocumentsHandler == nil || app.ExtractionsHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
