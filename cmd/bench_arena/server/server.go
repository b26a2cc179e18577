package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/config"
	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/engine/orchestrator"
	"github.com/bench-arena/bench-arena/internal/handlers"
	"github.com/bench-arena/bench-arena/internal/metrics"
	"github.com/bench-arena/bench-arena/internal/registration"
)

type Server struct {
	httpServer    *http.Server
	port          int
	logger        *slog.Logger
	serviceConfig *config.Config
	storage       abstractions.Storage
	validate      *validator.Validate
	registration  *registration.Service
	orchestrator  *orchestrator.Orchestrator
	metrics       *metrics.Metrics
}

// NewServer creates the HTTP server. Routing uses the standard library
// net/http.ServeMux without a web framework: routes switch on the HTTP
// method, build an ExecutionContext at the route level, and hand it to
// the handlers. All routes are wrapped with the Prometheus metrics
// middleware.
func NewServer(logger *slog.Logger,
	serviceConfig *config.Config,
	storage abstractions.Storage,
	validate *validator.Validate,
	registrationService *registration.Service,
	orch *orchestrator.Orchestrator,
	m *metrics.Metrics) (*Server, error) {

	if logger == nil {
		return nil, fmt.Errorf("logger is required for the server")
	}
	if (serviceConfig == nil) || (serviceConfig.Service == nil) {
		return nil, fmt.Errorf("service config is required for the server")
	}
	if storage == nil {
		return nil, fmt.Errorf("storage is required for the server")
	}
	if validate == nil {
		return nil, fmt.Errorf("validator is required for the server")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics are required for the server")
	}

	return &Server{
		port:          serviceConfig.Service.Port,
		logger:        logger,
		serviceConfig: serviceConfig,
		storage:       storage,
		validate:      validate,
		registration:  registrationService,
		orchestrator:  orch,
		metrics:       m,
	}, nil
}

func (s *Server) GetPort() int {
	return s.port
}

// loggerWithRequest enhances the base logger with request-specific fields.
// The request ID comes from the X-Global-Transaction-Id header, or is
// generated when the header is absent, so logs can be correlated across
// services.
func (s *Server) loggerWithRequest(r *http.Request) (string, *slog.Logger) {
	requestID := r.Header.Get("X-Global-Transaction-Id")
	if requestID == "" {
		requestID = uuid.New().String() // generate a UUID if not present
	}

	enhancedLogger := s.logger.With(constants.LogFieldRequestID, requestID)

	method := r.Method
	if method != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldMethod, method)
	}

	uri := ""
	if r.URL != nil {
		uri = r.URL.Path
	}
	if uri == "" {
		uri = r.RequestURI
	}
	if uri != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldURI, uri)
	}

	userAgent := r.Header.Get("User-Agent")
	if userAgent != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldUserAgent, userAgent)
	}

	remoteAddr := r.RemoteAddr
	if remoteAddr != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldRemoteAddr, remoteAddr)
	}

	remoteUser := ""
	if r.URL != nil && r.URL.User != nil {
		remoteUser = r.URL.User.Username()
	}
	if remoteUser == "" {
		remoteUser = r.Header.Get("Remote-User")
	}
	if remoteUser != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldUser, remoteUser)
	}

	referer := r.Header.Get("Referer")
	if referer != "" {
		enhancedLogger = enhancedLogger.With(constants.LogFieldReferer, referer)
	}

	return requestID, enhancedLogger
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
}

func (s *Server) setupRoutes() (http.Handler, error) {
	router := http.NewServeMux()
	h := handlers.New(s.storage, s.registration, s.orchestrator, s.validate, s.serviceConfig.Tournament)

	// Health and status endpoints
	router.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleHealth(ctx, w, s.serviceConfig.Service.Build, s.serviceConfig.Service.BuildDate)
		default:
			methodNotAllowed(w, r)
		}
	})

	router.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleStatus(ctx, w, s.serviceConfig.Service.Version)
		default:
			methodNotAllowed(w, r)
		}
	})

	// API document endpoints
	router.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleOpenAPI(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	router.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleDocs(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	// Tournament collection endpoints
	router.HandleFunc("/api/v1/tournaments", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodPost:
			h.HandleCreateTournament(ctx, w)
		case http.MethodGet:
			h.HandleListTournaments(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	// Individual tournament endpoints
	router.HandleFunc(fmt.Sprintf("/api/v1/tournaments/{%s}", constants.PathParameterTournamentID), func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleGetTournament(ctx, w)
		case http.MethodDelete:
			h.HandleCancelTournament(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	router.HandleFunc(fmt.Sprintf("/api/v1/tournaments/{%s}/leaderboard", constants.PathParameterTournamentID), func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleGetLeaderboard(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	router.HandleFunc(fmt.Sprintf("/api/v1/tournaments/{%s}/runs", constants.PathParameterTournamentID), func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleGetDayRuns(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	// Participant endpoints
	router.HandleFunc(fmt.Sprintf("/api/v1/tournaments/{%s}/participants", constants.PathParameterTournamentID), func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodPost:
			h.HandleRegisterParticipant(ctx, w)
		case http.MethodGet:
			h.HandleListParticipants(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	router.HandleFunc(fmt.Sprintf("/api/v1/tournaments/{%s}/participants/{%s}/runs", constants.PathParameterTournamentID, constants.PathParameterHotkey), func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleGetParticipantRuns(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	// Baseline endpoints
	router.HandleFunc("/api/v1/baselines", func(w http.ResponseWriter, r *http.Request) {
		ctx := s.newExecutionContext(r)
		switch r.Method {
		case http.MethodGet:
			h.HandleListBaselines(ctx, w)
		default:
			methodNotAllowed(w, r)
		}
	})

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Enable CORS in local mode only (for development/testing)
	handler := http.Handler(router)
	if s.serviceConfig.Service.LocalMode {
		handler = CorsMiddleware(handler)
	}

	// Wrap with metrics middleware (outermost for complete observability)
	handler = Middleware(handler, s.metrics)

	return handler, nil
}

// SetupRoutes exposes the route setup for testing
func (s *Server) SetupRoutes() (http.Handler, error) {
	return s.setupRoutes()
}

func (s *Server) Start() error {
	handler, err := s.setupRoutes()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Writing the server ready message", "file", s.serviceConfig.Service.ReadyFile)
	err = SetReady(s.serviceConfig, s.logger)
	if err != nil {
		return err
	}

	s.logger.Info("Server starting", "port", s.port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server gracefully...")
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
