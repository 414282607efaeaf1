// Package api: административный REST API сервера взаимодействий:
// просмотр рецептов и журнала исходов, перезагрузка рецептов, управление приватами.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/interactions/internal/auth"
	"github.com/annel0/interactions/internal/claims"
	"github.com/annel0/interactions/internal/interaction/store"
	"github.com/annel0/interactions/internal/journal"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/middleware"
)

// RecipeSource отдаёт текущий снимок рецептов
type RecipeSource interface {
	Snapshot() *store.Snapshot
}

// OutcomeLog: журнал исходов, доступный на чтение
type OutcomeLog interface {
	List(limit int) ([]journal.Entry, error)
	Since(t time.Time) ([]journal.Entry, error)
}

// Config содержит зависимости REST сервера
type Config struct {
	Addr       string                // адрес для запуска сервера
	Recipes    RecipeSource          // хранилище рецептов
	Reload     func() error          // перезагрузка рецептов; nil: недоступна
	Outcomes   OutcomeLog            // журнал исходов; nil: журнал выключен
	Claims     claims.Repo           // приваты
	Issuer     *auth.Issuer          // проверка токенов операторов
	Operators  auth.OperatorRepo     // вход по паролю; nil: только выпущенные токены
	Logger     *logging.Logger       // логгер HTTP
	Registerer prometheus.Registerer // HTTP-метрики; nil: не регистрируются
}

// GenericResponse: общий конверт ответа
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RestServer представляет REST API сервер
type RestServer struct {
	router   *gin.Engine
	httpSrv  *http.Server
	recipes  RecipeSource
	reload   func() error
	outcomes OutcomeLog
	claims   claims.Repo
	issuer   *auth.Issuer
	ops      auth.OperatorRepo
	metrics  *ServerMetrics
	logger   *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Recipes == nil || config.Claims == nil || config.Issuer == nil {
		return nil, errors.New("api: не заданы рецепты, приваты или issuer")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New() // без стандартного logger
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("interactions_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())
	router.Use(middleware.NewPrometheusMiddleware("interactions_api", config.Registerer).Handler())

	rs := &RestServer{
		router:   router,
		recipes:  config.Recipes,
		reload:   config.Reload,
		outcomes: config.Outcomes,
		claims:   config.Claims,
		issuer:   config.Issuer,
		ops:      config.Operators,
		metrics:  NewServerMetrics(),
		logger:   config.Logger,
	}
	rs.httpSrv = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.POST("/auth/login", rs.handleLogin)

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/stats", rs.handleStats)
		protected.GET("/recipes", rs.handleListRecipes)
		protected.GET("/recipes/:id", rs.handleGetRecipe)
		protected.GET("/outcomes", rs.handleOutcomes)
		protected.GET("/claims/:x/:y/:z", rs.handleGetClaim)

		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/reload", rs.handleReload)
			admin.POST("/claims", rs.handleClaim)
			admin.DELETE("/claims/:x/:y/:z", rs.handleRelease)
		}
	}
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер в фоне
func (rs *RestServer) Start() {
	go func() {
		rs.logger.Info("🌐 REST API запущен на %s", rs.httpSrv.Addr)
		if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.logger.Error("❌ Ошибка REST API: %v", err)
		}
	}()
}

// Shutdown останавливает сервер, дожидаясь активных запросов, и закрывает хранилище операторов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	err := rs.httpSrv.Shutdown(ctx)
	if rs.ops != nil {
		if cerr := rs.ops.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	snap := rs.recipes.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"time":       time.Now().Unix(),
		"recipes":    snap.Len(),
		"generation": snap.Generation(),
	})
}
