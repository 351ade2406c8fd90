package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/auth"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/catalog"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/config"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/db"
	workoutsmcp "github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/mcp"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/middleware"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/performance"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/metrics"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/users"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/workouts"
	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

const sessionsCleanupInterval = 8 * time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	mcpSecret         string

	config *config.Config
	dbPool *pgxpool.Pool
	gw     *db.Gateway

	redisClient  *redis.Client
	loginChecker auth.Checker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	MCPSecret               string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.PostgresPassword,
		SSLMode:        cfg.PostgresSSLMode,
		MaxConns:       cfg.PostgresMaxConns,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	gw := db.NewGateway(dbPool)
	if cfg.ApplySchema {
		if err := db.ApplySchema(ctx, gw.Querier()); err != nil {
			return nil, err
		}
		log.Debugln("db schema applied")
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "workouts", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	authService := auth.NewAuthService(sessionTTL, rdb)
	go func() {
		ticker := time.NewTicker(sessionsCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authService.ScanAndClean(ctx)
			}
		}
	}()

	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "workouts-backend", rdb)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		gw:          gw,
		versionInfo: params.VersionInfo,
		mcpSecret:   params.MCPSecret,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(sessionTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("workouts-router"))

	r.HandleFunc("/", handleRoot).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS").Name("version")

	// signup and login are rate limited per client ip
	rateLimiter := redis_rate.NewLimiter(s.redisClient)
	signupLimit := middleware.RateLimit(rateLimiter, "signup", s.config.LoginRateLimitAllowedPerMin, s.metricsManager)
	loginLimit := middleware.RateLimit(rateLimiter, "login", s.config.LoginRateLimitAllowedPerMin, s.metricsManager)

	usersHandler := users.NewHandler(
		users.NewService(users.NewRepo(s.gw), s.authService, s.metricsManager),
	)
	r.Handle("/signup", signupLimit(http.HandlerFunc(usersHandler.HandleSignup))).Methods("POST", "OPTIONS").Name("signup")
	r.Handle("/login", loginLimit(http.HandlerFunc(usersHandler.HandleLogin))).Methods("POST", "OPTIONS").Name("login")
	r.HandleFunc("/logout", usersHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	r.HandleFunc("/users/me/first-login", usersHandler.HandleHasLoggedIn).Methods("GET", "OPTIONS").Name("has-logged-in")
	r.HandleFunc("/users/me/first-login", usersHandler.HandleMarkFirstLogin).Methods("PUT", "OPTIONS").Name("mark-first-login")
	r.HandleFunc("/users/me/metrics", usersHandler.HandleGetMetrics).Methods("GET", "OPTIONS").Name("get-user-metrics")
	r.HandleFunc("/users/me/metrics", usersHandler.HandleUpdateMetrics).Methods("PUT", "OPTIONS").Name("update-user-metrics")
	r.HandleFunc("/users/me", usersHandler.HandleDeleteAccount).Methods("DELETE", "OPTIONS").Name("delete-account")

	catalogHandler := catalog.NewHandler(catalog.NewRepo(s.gw))
	r.HandleFunc("/exercises", catalogHandler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/workouts/{id}/exercises", catalogHandler.HandleExercisesInWorkout).Methods("GET", "OPTIONS").Name("workout-exercises")

	workoutsHandler := workouts.NewHandler(
		workouts.NewService(workouts.NewRepo(s.gw), s.metricsManager),
	)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", workoutsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("create-workout")
	r.HandleFunc("/workouts/templates/{id}", workoutsHandler.HandleGetTemplate).Methods("GET", "OPTIONS").Name("get-template")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
	r.HandleFunc("/workouts/{id}/exercises", workoutsHandler.HandleAddExercise).Methods("POST", "OPTIONS").Name("add-workout-exercise")
	r.HandleFunc("/workouts/{id}/exercises/{exid}", workoutsHandler.HandleRemoveExercise).Methods("DELETE", "OPTIONS").Name("remove-workout-exercise")

	setsHandler := performance.NewHandler(
		performance.NewService(performance.NewRepo(s.gw), s.metricsManager),
	)
	r.HandleFunc("/workouts/{id}/exercises/{exid}/sets", setsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-sets")
	r.HandleFunc("/workouts/{id}/exercises/{exid}/sets", setsHandler.HandleAddSet).Methods("POST", "OPTIONS").Name("add-set")
	r.HandleFunc("/workouts/{id}/exercises/{exid}/sets", setsHandler.HandleOperation).Methods("PATCH", "OPTIONS").Name("set-operation")
	r.HandleFunc("/workouts/{id}/exercises/{exid}/sets/{set}", setsHandler.HandleUpdateSet).Methods("PUT", "OPTIONS").Name("update-set")
	r.HandleFunc("/workouts/{id}/exercises/{exid}/sets/{set}", setsHandler.HandleDeleteSet).Methods("DELETE", "OPTIONS").Name("delete-set")

	if s.config.MCPEnabled {
		if s.mcpSecret == "" {
			log.Warnln("mcp enabled but no secret set, /mcp will reject every request")
		}
		mcpServer := workoutsmcp.NewServer(s.gw)
		r.PathPrefix("/mcp").Handler(workoutsmcp.HTTPHandler(mcpServer, s.mcpSecret)).Name("mcp")
	}

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before closing what they depend on
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}
