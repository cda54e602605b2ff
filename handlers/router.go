package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"task-manager/backend/middleware"
	"task-manager/backend/services"
	"task-manager/backend/utils"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Users      *services.UserService
	Tasks      *services.TaskService
	Dashboards *services.DashboardService
	Reports    *services.ReportService
	Images     *utils.ImageStore
	Store      Pinger

	AllowedOrigin string
	AuthRateLimit rate.Limit
	AuthRateBurst int
}

func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Users, cfg.Images)
	taskHandler := NewTaskHandler(cfg.Tasks, cfg.Dashboards)
	userHandler := NewUserHandler(cfg.Users, cfg.Reports)
	reportHandler := NewReportHandler(cfg.Reports)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)

	r.HandleFunc("/health", health(cfg.Store)).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Images.Dir)))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	limit := middleware.RateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	api.Handle("/auth/signup", limit(http.HandlerFunc(authHandler.Signup))).Methods(http.MethodPost)
	api.Handle("/auth/signin", limit(http.HandlerFunc(authHandler.Signin))).Methods(http.MethodPost)
	api.Handle("/auth/password/reset", limit(http.HandlerFunc(authHandler.RequestPasswordReset))).Methods(http.MethodPost)
	api.Handle("/auth/password/reset/{token}", limit(http.HandlerFunc(authHandler.ResetPassword))).Methods(http.MethodPost)
	api.HandleFunc("/auth/upload-image", authHandler.UploadImage).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(cfg.Users))

	protected.HandleFunc("/auth/profile", authHandler.Profile).Methods(http.MethodGet)

	protected.HandleFunc("/tasks/dashboard-data", taskHandler.GetDashboardData).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/user-dashboard-data", taskHandler.GetUserDashboardData).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/status", taskHandler.UpdateTaskStatus).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}/todo", taskHandler.UpdateTaskChecklist).Methods(http.MethodPut)

	protected.HandleFunc("/users", userHandler.GetUsers).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", userHandler.GetUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods(http.MethodDelete)

	protected.HandleFunc("/reports/export/tasks", reportHandler.ExportTasksReport).Methods(http.MethodGet)
	protected.HandleFunc("/reports/export/users", reportHandler.ExportUsersReport).Methods(http.MethodGet)

	return middleware.RecoveryWithLog(middleware.CORS(cfg.AllowedOrigin)(r))
}

func health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			writeMessage(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		writeMessage(w, http.StatusOK, "Task manager service is running")
	}
}
