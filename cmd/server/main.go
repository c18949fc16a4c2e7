package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"versify/internal/capabilities"
	"versify/internal/config"
	workflowrepo "versify/internal/domain/repositories/workflow"
	"versify/internal/handler"
	"versify/internal/llm"
	"versify/internal/middleware"
	"versify/internal/repository/postgres"
	docsystempg "versify/internal/repository/postgres/docsystem"
	workflowpg "versify/internal/repository/postgres/workflow"
	"versify/internal/service"
	"versify/internal/service/auth"
	docsystemsvc "versify/internal/service/docsystem"
	"versify/internal/service/docsystem/converter"
	"versify/internal/workflow"
	"versify/internal/workflow/archive"
	"versify/internal/workflow/di"
	"versify/internal/workflow/langmap"
	"versify/internal/workflow/metrics"
	"versify/internal/workflow/modes"
	"versify/internal/workflow/parser"
	"versify/internal/workflow/persistence"
	"versify/internal/workflow/progress"
	"versify/internal/workflow/prompt"
	"versify/internal/workflow/registry"
)

func prometheusRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// ensureTestProject creates a test project if it doesn't exist (Phase 1 auth stub)
func ensureTestProject(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, projectID, userID, name string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, tables.Projects)

	// Use a connection from the pool with simple protocol to avoid prepared statement conflicts
	// This happens when the seed script runs just before the server starts
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, query, pgx.QueryExecModeExec, projectID, userID, name, time.Now())
	if err != nil {
		return fmt.Errorf("failed to ensure test project: %w", err)
	}
	return nil
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Ensure test project exists (Phase 1 auth stub)
	if err := ensureTestProject(ctx, pool, tables, cfg.TestProjectID, cfg.TestUserID, "Test Project"); err != nil {
		log.Fatalf("Failed to ensure test project: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := docsystempg.NewDocumentRepository(repoConfig)
	folderRepo := docsystempg.NewFolderRepository(repoConfig)
	projectRepo := docsystempg.NewProjectRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Create services
	contentAnalyzer := docsystemsvc.NewContentAnalyzer()
	pathResolver := docsystemsvc.NewPathResolver(folderRepo, txManager)
	validator := docsystemsvc.NewResourceValidator(projectRepo, folderRepo)
	authorizer := auth.NewOwnerBasedAuthorizer(projectRepo, folderRepo, docRepo)

	docService := docsystemsvc.NewDocumentService(docRepo, folderRepo, txManager, contentAnalyzer, pathResolver, validator, logger)
	folderService := docsystemsvc.NewFolderService(folderRepo, docRepo, docService, pathResolver, txManager, validator, authorizer, logger)
	treeService := docsystemsvc.NewTreeService(folderRepo, docRepo, logger)
	projectService := docsystemsvc.NewProjectService(projectRepo, logger)

	converterRegistry := converter.NewConverterRegistry()
	fileProcessors := docsystemsvc.NewFileProcessorRegistry()
	fileProcessors.Register(docsystemsvc.NewIndividualFileProcessor(docRepo, docService, converterRegistry, logger))
	fileProcessors.Register(docsystemsvc.NewZipFileProcessor(docRepo, docService, converterRegistry, logger))
	importService := docsystemsvc.NewImportService(docRepo, fileProcessors, logger)

	prefsRepo := postgres.NewUserPreferencesRepository(repoConfig)
	prefsService := service.NewUserPreferencesService(prefsRepo, logger)

	// Create new handlers
	newDocHandler := handler.NewDocumentHandler(docService, logger)
	newFolderHandler := handler.NewFolderHandler(folderService, logger)
	newTreeHandler := handler.NewTreeHandler(treeService, logger)
	newProjectHandler := handler.NewProjectHandler(projectService, logger)
	importHandler := handler.NewImportHandler(importService, authorizer, logger)
	prefsHandler := handler.NewUserPreferencesHandler(prefsService, logger)

	logger.Info("services initialized")

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", newDocHandler.HealthCheck)

	mux.HandleFunc("GET /api/tree", newTreeHandler.GetTree)

	mux.HandleFunc("POST /api/folders", newFolderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/{id}", newFolderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", newFolderHandler.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", newFolderHandler.DeleteFolder)

	mux.HandleFunc("POST /api/documents", newDocHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents/{id}", newDocHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", newDocHandler.UpdateDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", newDocHandler.DeleteDocument)

	mux.HandleFunc("POST /api/import", importHandler.Merge)
	mux.HandleFunc("POST /api/import/replace", importHandler.Replace)

	mux.HandleFunc("GET /api/projects/{id}", newProjectHandler.GetProject)

	mux.HandleFunc("GET /api/users/me/preferences", prefsHandler.GetPreferences)
	mux.HandleFunc("PATCH /api/users/me/preferences", prefsHandler.UpdatePreferences)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	var docsystemHandler http.Handler = mux
	docsystemHandler = middleware.AuthStub(cfg.TestUserID)(docsystemHandler)
	docsystemHandler = middleware.ProjectMiddleware(cfg.TestProjectID)(docsystemHandler)
	docsystemHandler = middleware.Recovery(logger)(docsystemHandler)
	docsystemHandler = corsMiddleware.Handler(docsystemHandler)

	workflowServer := buildWorkflowServer(cfg, pool, tables, logger)
	go func() {
		logger.Info("workflow server starting", "port", cfg.WorkflowPort)
		if err := workflowServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("workflow server failed: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, docsystemHandler); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildWorkflowServer wires the translation WorkflowOrchestrator and its
// collaborators through the DI container, then mounts WorkflowHandler's
// routes on a plain net/http ServeMux. Runs alongside the docsystem app on
// its own port, since the two surfaces share nothing but process, logger
// and database pool.
func buildWorkflowServer(cfg *config.Config, pool *pgxpool.Pool, tables *postgres.TableNames, logger *slog.Logger) *http.Server {
	container := di.New()

	di.Register[*langmap.Table](container, di.Singleton, func() (*langmap.Table, error) {
		return langmap.Load()
	})
	di.Register[*modes.Registry](container, di.Singleton, func() (*modes.Registry, error) {
		return modes.NewRegistry()
	})
	di.Register[*prompt.Renderer](container, di.Singleton, func() (*prompt.Renderer, error) {
		return prompt.NewRenderer()
	})
	di.Register[*parser.Parser](container, di.Singleton, func() *parser.Parser {
		return parser.NewParser()
	})
	di.Register[*registry.Registry](container, di.Singleton, func() *registry.Registry {
		return registry.New(cfg.TaskRetention)
	})
	di.Register[*progress.Bus](container, di.Singleton, func() *progress.Bus {
		return progress.New(progress.Options{
			RingCapacity:      64,
			SubscriberBuffer:  16,
			HeartbeatInterval: 15 * time.Second,
		})
	})
	di.Register[*llm.Factory](container, di.Singleton, func() *llm.Factory {
		return llm.NewFactory(llm.Config{
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			OpenAIAPIKey:    cfg.OpenAIAPIKey,
			EnableMock:      cfg.EnableMockLLM,
			RequestsPerSecond: map[string]float64{
				"anthropic": 4,
				"openai":    4,
			},
		})
	})
	di.Register[workflowrepo.Repository](container, di.Singleton, func() workflowrepo.Repository {
		wfTables := workflowpg.NewTableNames(cfg.TablePrefix)
		return workflowpg.NewRepository(pool, wfTables, logger)
	})
	di.Register[workflowrepo.TransactionManager](container, di.Singleton, func() workflowrepo.TransactionManager {
		return workflowpg.NewTransactionManager(pool, logger)
	})
	di.Register[*persistence.Sink](container, di.Singleton, func(repo workflowrepo.Repository, txMgr workflowrepo.TransactionManager, langs *langmap.Table) *persistence.Sink {
		return persistence.NewSink(repo, txMgr, langs)
	})
	di.Register[*archive.Archiver](container, di.Singleton, func() *archive.Archiver {
		return archive.NewArchiver(cfg.WorkflowArchiveDir, nil)
	})
	di.Register[*metrics.Collectors](container, di.Singleton, func() *metrics.Collectors {
		c := metrics.NewCollectors()
		c.MustRegister(prometheusRegisterer())
		return c
	})
	di.Register[*workflow.Orchestrator](container, di.Singleton, func(
		reg *registry.Registry,
		bus *progress.Bus,
		modesRegistry *modes.Registry,
		factory *llm.Factory,
		renderer *prompt.Renderer,
		outputParser *parser.Parser,
		sink *persistence.Sink,
		archiver *archive.Archiver,
		repo workflowrepo.Repository,
		collectors *metrics.Collectors,
	) *workflow.Orchestrator {
		return workflow.New(reg, bus, modesRegistry, factory, renderer, outputParser, sink, archiver, repo, logger, collectors, workflow.Config{})
	})

	orchestrator, err := di.Resolve[*workflow.Orchestrator](container)
	if err != nil {
		log.Fatalf("failed to wire workflow orchestrator: %v", err)
	}
	bus, err := di.Resolve[*progress.Bus](container)
	if err != nil {
		log.Fatalf("failed to wire progress bus: %v", err)
	}
	taskRegistry, err := di.Resolve[*registry.Registry](container)
	if err != nil {
		log.Fatalf("failed to wire task registry: %v", err)
	}

	go taskRegistry.StartCleanup(context.Background(), cfg.TaskRetention/2)

	workflowHandler := handler.NewWorkflowHandler(orchestrator, bus, logger)

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("failed to load model capability registry: %v", err)
	}
	modelsHandler := handler.NewModelsHandler(cfg, logger, capabilityRegistry)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/workflows/translate", workflowHandler.StartTranslation)
	mux.HandleFunc("GET /api/workflows/{task_id}", workflowHandler.GetStatus)
	mux.HandleFunc("POST /api/workflows/{task_id}/cancel", workflowHandler.CancelTask)
	mux.HandleFunc("GET /api/workflows/{task_id}/events", workflowHandler.StreamEvents)
	mux.HandleFunc("GET /api/workflows", workflowHandler.ListTasks)
	mux.HandleFunc("GET /api/models", modelsHandler.GetCapabilities)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:    ":" + cfg.WorkflowPort,
		Handler: mux,
	}
}
