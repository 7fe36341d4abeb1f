package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/OldStager01/getaround-pricing/api/handlers"
	"github.com/OldStager01/getaround-pricing/api/middleware"
	"github.com/OldStager01/getaround-pricing/api/websocket"
	_ "github.com/OldStager01/getaround-pricing/docs"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/pipeline"
	"github.com/OldStager01/getaround-pricing/internal/prediction"
	"github.com/OldStager01/getaround-pricing/pkg/config"
	"github.com/OldStager01/getaround-pricing/pkg/database"
)

// Dependencies are the collaborators the router is built from. Pipeline,
// DB, Predictions and Metrics may be nil.
type Dependencies struct {
	Service     *prediction.Service
	Pipeline    *pipeline.Pipeline
	LoadErr     error
	Pricing     handlers.PricingSource
	Reporter    handlers.DelayReporter
	Predictions handlers.PredictionStore
	DB          *database.DB
	Metrics     *metrics.Metrics
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	wsConfig   config.WebSocketConfig
	deps       Dependencies
	wsHub      *websocket.Hub
	cancelHub  context.CancelFunc
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	switch cfg.App.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	s := &Server{
		router:   gin.New(),
		config:   cfg.API,
		wsConfig: cfg.WebSocket,
		deps:     deps,
	}

	if cfg.WebSocket.Enabled {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancelHub = cancel
		s.wsHub = websocket.NewHub(&cfg.WebSocket, deps.Metrics)
		go s.wsHub.Run(ctx)

		if deps.Service != nil {
			deps.Service.AddObserver(websocket.NewFeed(s.wsHub))
		}
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.CORSConfigFrom(s.config.CORS)))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxBodyBytes))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.Metrics(s.deps.Metrics))

	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))

	endpointLimiter := middleware.NewEndpointRateLimiter()
	endpointLimiter.AddEndpoint("/report/delays", s.config.ReportRateLimit, time.Minute)
	s.router.Use(endpointLimiter.Middleware())
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.ready, s.deps.DB)
	predictHandler := handlers.NewPredictHandler(s.deps.Service)
	previewHandler := handlers.NewPreviewHandler(s.deps.Pricing, s.config.DefaultPreviewRows, s.config.MaxPreviewRows)
	modelHandler := handlers.NewModelHandler(s.deps.Pipeline, s.deps.LoadErr)
	reportHandler := handlers.NewReportHandler(s.deps.Reporter)
	predictionsHandler := handlers.NewPredictionsHandler(s.deps.Predictions, s.config.DefaultLimit, s.config.MaxLimit)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.GET("/", previewHandler.Preview)
	s.router.POST("/predict", predictHandler.Predict)
	s.router.GET("/model", modelHandler.Info)
	s.router.GET("/report/delays", reportHandler.Delays)
	s.router.GET("/predictions/recent", predictionsHandler.Recent)
	s.router.GET("/predictions/stats", predictionsHandler.Stats)

	if s.wsHub != nil {
		s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))
	}
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}
	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) ready() error {
	if s.deps.Service == nil {
		return pipeline.ErrArtifactUnavailable
	}
	return s.deps.Service.Ready()
}

// Start blocks serving requests. After Shutdown it returns
// http.ErrServerClosed, even when Shutdown ran first.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancelHub != nil {
		s.cancelHub()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
