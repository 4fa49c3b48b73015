package main

import (
	"context"
	"net/http"
	"os"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Kolawole99/henry-capstone/controller"
	"github.com/Kolawole99/henry-capstone/services"
	"github.com/Kolawole99/henry-capstone/storage"
)

func main() {
	// Missing .env is fine in deployed environments; variables come from the host.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if key := os.Getenv("UNIDOC_LICENSE_KEY"); key != "" {
		if err := services.InitPDFLicense(key); err != nil {
			logger.Warn("failed to set unidoc license, pdf ingestion will fail", zap.Error(err))
		}
	}

	store, err := storage.NewSQLiteStore(envOr("DATABASE_PATH", "data/capstone.db"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	var chromaOpts []chromago.ClientOption
	if chromaURL := os.Getenv("CHROMA_URL"); chromaURL != "" {
		chromaOpts = append(chromaOpts, chromago.WithBaseURL(chromaURL))
	}
	chromaClient, err := chromago.NewHTTPClient(chromaOpts...)
	if err != nil {
		logger.Fatal("failed to create chroma client", zap.Error(err))
	}
	defer func() {
		if err := chromaClient.Close(); err != nil {
			logger.Warn("failed to close chroma client", zap.Error(err))
		}
	}()

	geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Fatal("failed to create gemini client, is GEMINI_API_KEY set?", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	embedder := services.NewOllamaEmbedder(httpClient, envOr("OLLAMA_URL", "http://localhost:11434"), os.Getenv("OLLAMA_EMBED_MODEL"), logger)
	completer := services.NewGeminiCompleter(geminiClient, os.Getenv("GEMINI_MODEL"), logger)

	manager := services.NewCollectionManager(chromaClient, embedder, logger)
	router := services.NewDispatcherRouter(store, completer, logger)
	specialist := services.NewRAGSpecialist(store, manager, completer, logger)
	auditor := services.NewSafetyAuditor(completer, logger)
	coordinator := services.NewCoordinator(store, router, specialist, auditor, logger)
	generator := services.NewPromptGenerator(completer, logger)

	chatController := controller.NewChatController(coordinator, store, logger)
	agentController := controller.NewAgentController(store, generator, manager, logger)
	fileController, err := controller.NewFileController(store, manager, envOr("UPLOAD_DIR", "data/uploads"), logger)
	if err != nil {
		logger.Fatal("failed to create file controller", zap.Error(err))
	}

	// Keep the default collection in sync with documents dropped on disk.
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		go func() {
			defaultStore, err := manager.Default(watchCtx)
			if err != nil {
				logger.Error("default collection unavailable, watcher disabled", zap.Error(err))
				return
			}
			watcher := services.NewDirectoryWatcher(defaultStore, logger)
			if err := watcher.Sync(watchCtx, dataDir); err != nil {
				logger.Warn("initial directory sync failed", zap.Error(err))
			}
			if err := watcher.Watch(watchCtx, dataDir); err != nil && watchCtx.Err() == nil {
				logger.Error("directory watcher stopped", zap.Error(err))
			}
		}()
	}

	engine := gin.Default()
	engine.Use(corsMiddleware())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "capstone-api"})
	})

	apiV1 := engine.Group("/api/v1")
	{
		apiV1.POST("/chat", chatController.Chat)
		apiV1.GET("/chat/:session_id", chatController.History)

		apiV1.GET("/agents", agentController.List)
		apiV1.POST("/agents", agentController.Create)
		apiV1.DELETE("/agents/:id", agentController.Delete)

		apiV1.GET("/files", fileController.List)
		apiV1.POST("/files", fileController.Upload)
		apiV1.DELETE("/files/:id", fileController.Delete)
	}

	port := envOr("PORT", "8080")
	logger.Info("server starting", zap.String("port", port))
	if err := engine.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
