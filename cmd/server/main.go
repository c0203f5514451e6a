// Package main is the application entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-rag-go/internal/config"
	"pdf-rag-go/internal/handler"
	"pdf-rag-go/internal/middleware"
	"pdf-rag-go/internal/model"
	"pdf-rag-go/internal/repository"
	"pdf-rag-go/internal/segment"
	"pdf-rag-go/internal/service"
	"pdf-rag-go/pkg/database"
	"pdf-rag-go/pkg/embedding"
	"pdf-rag-go/pkg/es"
	"pdf-rag-go/pkg/kafka"
	"pdf-rag-go/pkg/llm"
	"pdf-rag-go/pkg/log"
	"pdf-rag-go/pkg/storage"
	"pdf-rag-go/pkg/tika"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Configuration and logging.
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized successfully")

	// 2. Databases.
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.Document{}); err != nil {
		log.Fatal("failed to migrate database schema", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 3. External clients.
	blobStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		log.Fatal("failed to initialize MinIO", err)
	}
	index, err := es.NewIndex(cfg.Elasticsearch)
	if err != nil {
		log.Fatal("failed to initialize Elasticsearch", err)
	}
	// Schema failures are logged, not fatal: the index may come up later and
	// individual operations will report their own errors until then.
	if err := index.EnsureSchema(context.Background()); err != nil {
		log.Error("failed to ensure index schema", err)
	}
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)
	tikaClient := tika.NewClient(cfg.Tika)
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. Repositories and services (dependency injection).
	docRepo := repository.NewDocumentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	segmenter := segment.NewSentenceSegmenter(tikaClient)
	documentService := service.NewDocumentService(docRepo, blobStore, index, embeddingClient, segmenter, producer)
	chatService := service.NewChatService(embeddingClient, index, llmClient, conversationRepo)

	// 5. Router.
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	apiV1 := r.Group("/api/v1")
	{
		docHandler := handler.NewDocumentHandler(documentService)
		apiV1.POST("/upload-pdf", docHandler.UploadPDF)
		apiV1.POST("/upload-pdf-confirm", docHandler.ConfirmUpload)
		apiV1.POST("/parse-pdf", docHandler.ParsePDF)
		apiV1.GET("/list-pdfs", docHandler.ListPDFs)
		apiV1.GET("/pdfs/:id", docHandler.GetPDF)
		apiV1.DELETE("/pdfs/:id", docHandler.DeletePDF)

		chatHandler := handler.NewChatHandler(chatService)
		apiV1.POST("/chat", chatHandler.Chat)
	}

	// 6. HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	log.Info("server stopped gracefully")
}
