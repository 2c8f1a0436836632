// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/config"
	"github.com/inkwelldev/newsletter-backend/internal/db"
	"github.com/inkwelldev/newsletter-backend/internal/email"
	"github.com/inkwelldev/newsletter-backend/internal/queue"
	"github.com/inkwelldev/newsletter-backend/internal/repository"
	"github.com/inkwelldev/newsletter-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	pool, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}

	deliveryQueue := &queue.DeliveryQueue{DB: pool}
	issueRepo := &repository.IssueRepository{DB: pool}
	sender := email.NewClient(cfg.EmailBaseURL, cfg.EmailSender, cfg.EmailAuthToken, cfg.EmailTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Abrupt termination mid-iteration is safe: an uncommitted claim
	// simply unlocks and the task stays in the queue.
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		workerID := i
		go func() {
			defer wg.Done()
			worker := &service.DeliveryWorker{
				Queue:         deliveryQueue,
				Issues:        issueRepo,
				Sender:        sender,
				Logger:        logger.With(zap.Int("worker", workerID)),
				PollInterval:  cfg.PollInterval,
				RetryInterval: cfg.RetryInterval,
			}
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", zap.Int("worker", workerID), zap.Error(err))
			}
		}()
	}

	logger.Info("delivery workers running", zap.Int("count", cfg.WorkerCount))
	wg.Wait()
}
