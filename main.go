package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"task-manager/backend/config"
	"task-manager/backend/handlers"
	"task-manager/backend/logging"
	"task-manager/backend/repositories"
	"task-manager/backend/services"
	"task-manager/backend/utils"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	closer, err := logging.InitLogger(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager service...")

	store, err := repositories.NewMongoStore(context.Background(), cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logging.Logger.Warnf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureIndexes(indexCtx); err != nil {
		cancel()
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}
	cancel()

	var blackList utils.PasswordBlacklist
	if cfg.PasswordBlacklistFile != "" {
		blackList, err = utils.LoadBlackList(cfg.PasswordBlacklistFile)
		if err != nil {
			logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: Could not load password blacklist: %v", err)
		}
		logging.Logger.Infof("Event ID: BLACKLIST_LOADED, Description: Loaded %d blacklisted passwords", len(blackList))
	}

	images, err := utils.NewImageStore(cfg.UploadDir)
	if err != nil {
		logging.Logger.Fatalf("Event ID: UPLOAD_DIR_FAILED, Description: %v", err)
	}

	mailer := utils.NewSMTPMailer(utils.SMTPSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	users := store.Users()
	tasks := store.Tasks()

	userService := services.NewUserService(users, tasks, utils.NewTokenManager(cfg.JWTSecret), mailer, services.UserServiceConfig{
		AdminInviteToken: cfg.AdminInviteToken,
		ResetLinkBase:    cfg.ResetLinkBase(),
		BlackList:        blackList,
	})

	router := handlers.NewRouter(handlers.RouterConfig{
		Users:         userService,
		Tasks:         services.NewTaskService(tasks, users),
		Dashboards:    services.NewDashboardService(tasks),
		Reports:       services.NewReportService(users, tasks),
		Images:        images,
		Store:         store,
		AllowedOrigin: cfg.AllowedOrigin(),
		AuthRateLimit: rate.Limit(cfg.AuthRateLimit),
		AuthRateBurst: cfg.AuthRateBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down server...")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}
