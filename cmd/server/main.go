// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inkwelldev/newsletter-backend/internal/config"
	"github.com/inkwelldev/newsletter-backend/internal/controller"
	"github.com/inkwelldev/newsletter-backend/internal/db"
	"github.com/inkwelldev/newsletter-backend/internal/email"
	"github.com/inkwelldev/newsletter-backend/internal/middleware"
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

	// Init DB
	pool, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}

	idempotencyRepo := &repository.IdempotencyRepository{DB: pool}
	issueRepo := &repository.IssueRepository{DB: pool}
	subscriberRepo := &repository.SubscriberRepository{DB: pool}
	deliveryQueue := &queue.DeliveryQueue{DB: pool}
	sender := email.NewClient(cfg.EmailBaseURL, cfg.EmailSender, cfg.EmailAuthToken, cfg.EmailTimeout)

	publishService := &service.PublishService{
		Idempotency: idempotencyRepo,
		Logger:      logger,
	}
	subscriptionService := &service.SubscriptionService{
		Subscribers: subscriberRepo,
		Sender:      sender,
		Logger:      logger,
		AppBaseURL:  cfg.AppBaseURL,
	}

	newsletterController := &controller.NewsletterController{
		PublishService: publishService,
		IssueRepo:      issueRepo,
		Queue:          deliveryQueue,
	}
	subscriptionController := &controller.SubscriptionController{
		SubscriptionService: subscriptionService,
	}

	r := chi.NewRouter()

	r.Get("/health_check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Subscription routes
	r.Post("/subscriptions", subscriptionController.Subscribe)
	r.Get("/subscriptions/confirm", subscriptionController.Confirm)

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/newsletters", newsletterController.Publish)
		r.Get("/newsletters/{id}", newsletterController.GetIssue)
	})

	logger.Info("server running", zap.String("addr", cfg.ServerAddr))
	log.Fatal(http.ListenAndServe(cfg.ServerAddr, r))
}
