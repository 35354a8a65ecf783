package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"legaleagle.app/api/internal/api"
	"legaleagle.app/api/internal/archive"
	"legaleagle.app/api/internal/config"
	"legaleagle.app/api/internal/core"
	"legaleagle.app/api/internal/entitlement"
	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/payment"
	"legaleagle.app/api/internal/splitter"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/sweeper"
	"legaleagle.app/api/internal/vectorstore"
)

func main() {
	// Command line flags for one-off ingestion
	ingestFile := flag.String("ingest", "", "Ingest a local .pdf or text file into the chat given by -chat and exit")
	chatID := flag.String("chat", "", "Chat ID to ingest into (with -ingest)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	dbStore, err := store.NewSQLiteStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	vectors, err := newVectorStore(ctx, cfg, dbStore, logger)
	if err != nil {
		log.Fatalf("Failed to initialize vector store: %v", err)
	}

	llmService, err := core.NewLLMService(ctx, core.LLMConfig{
		APIKey:         cfg.GeminiAPIKey,
		ChatModel:      cfg.LLMModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Temperature:    cfg.LLMTemperature,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize LLM service: %v", err)
	}
	defer llmService.Close()

	chunker, err := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("Failed to initialize splitter: %v", err)
	}

	arch, err := newArchiver(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize upload archive: %v", err)
	}

	quota := entitlement.NewEngine(dbStore, entitlement.Limits{
		Chats:     cfg.FreeChatLimit,
		Documents: cfg.FreeDocumentLimit,
	})
	ingestService := core.NewIngestService(chunker, llmService, vectors, cfg.MaxUploadBytes(), logger)
	ragService := core.NewRAGService(llmService, llmService, vectors, cfg.TopK, logger)
	chatService := core.NewChatService(dbStore, vectors, quota, ingestService, ragService, arch, logger)

	// Handle data ingestion if flag is set
	if *ingestFile != "" {
		if err := ingestLocalFile(ctx, chatService, *chatID, *ingestFile); err != nil {
			log.Fatalf("Data ingestion failed: %v", err)
		}
		return
	}

	gateway := payment.NewRazorpayClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL)
	paymentService := core.NewPaymentService(dbStore, gateway, core.PaymentConfig{
		KeyID:    gateway.KeyID(),
		Secret:   gateway.Secret(),
		Price:    cfg.PremiumPriceINR,
		Currency: "INR",
	}, logger)

	if cfg.SweepEnabled {
		sw := sweeper.New(cfg.SweepSchedule, vectors, dbStore, logger)
		if err := sw.Start(); err != nil {
			log.Fatalf("Failed to start orphan sweeper: %v", err)
		}
		defer sw.Stop()
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, paymentService, dbStore.DB(), vectors, cfg.MaxUploadBytes(), logger)
	router := api.NewRouter(apiHandler, cfg.CORSOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second, // large uploads
		WriteTimeout: 120 * time.Second, // embedding a long PDF takes a while
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info(ctx, "starting server", "addr", serverAddr, "vector_backend", cfg.VectorBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	logger.Info(ctx, "server exiting gracefully")
}

func newVectorStore(ctx context.Context, cfg *config.Config, db *store.SQLiteStore, logger logging.Logger) (vectorstore.Store, error) {
	if cfg.VectorBackend == config.VectorBackendQdrant {
		qs := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		}, logger)
		if err := qs.Init(ctx, cfg.EmbeddingDimension); err != nil {
			return nil, err
		}
		return qs, nil
	}
	return vectorstore.NewSQLiteStore(ctx, db.DB(), logger)
}

func newArchiver(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
	if cfg.S3Bucket == "" {
		return archive.Nop{}, nil
	}
	s3a, err := archive.NewS3Archiver(ctx, archive.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return s3a, nil
}

func ingestLocalFile(ctx context.Context, chats *core.ChatService, chatID, path string) error {
	if chatID == "" {
		return errors.New("-chat is required with -ingest")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	src := core.Source{Name: name, Text: string(data)}
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		src = core.Source{Name: name, PDF: data}
	}

	doc, err := chats.Upload(ctx, chatID, src)
	if err != nil {
		return err
	}
	log.Printf("Data ingestion complete. Ingested %d chunks from %s into chat %s (document %s).", doc.ChunkCount, name, chatID, doc.ID)
	return nil
}
