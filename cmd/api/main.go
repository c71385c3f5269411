package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/binwin/binwin-service/internal/config"
	"github.com/binwin/binwin-service/internal/handler"
	"github.com/binwin/binwin-service/internal/integrations/scrapindex"
	"github.com/binwin/binwin-service/internal/middleware"
	"github.com/binwin/binwin-service/internal/notify"
	"github.com/binwin/binwin-service/internal/repository"
	"github.com/binwin/binwin-service/internal/service"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	var rates service.RateSource
	if cfg.ScrapIndexURL != "" {
		rates = scrapindex.NewClient(cfg.ScrapIndexURL, logger)
	}
	notifier := notify.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, rates, notifier)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	// Public routes
	r.HandleFunc("/signup", h.Signup).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/getcompanyprofile", h.SaveCompanyProfile).Methods("POST")
	r.HandleFunc("/companySchedule", h.CompanySchedule).Methods("POST")
	r.HandleFunc("/displayuserSchedule", h.DisplayUserSchedule).Methods("GET")
	r.HandleFunc("/acceptSchedule", h.AcceptSchedule).Methods("POST")
	r.HandleFunc("/declineSchedule", h.DeclineSchedule).Methods("POST")
	r.HandleFunc("/displayCompanySchedule", h.DisplayCompanySchedule).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
	// Protected routes
	adminRouter := r.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(cfg))
	adminRouter.HandleFunc("/remind", h.Remind).Methods("POST")

	// Daily pickup reminder job
	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderSpec, func() {
		if _, err := svc.RemindUpcoming(); err != nil {
			logger.Errorf("Reminder job failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Invalid reminder spec %q: %v", cfg.ReminderSpec, err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
