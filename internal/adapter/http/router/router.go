package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/http/handler"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/adapter/http/middleware"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/repository"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/domain/service"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/infrastructure/metrics"
	"github.com/Visal-Balakrishnan/social-media/sentiment-api/internal/usecase"
)

// Deps holds what the router wires into handlers. Cache may be nil.
type Deps struct {
	Classifier service.Classifier
	Predict    usecase.PredictUsecase
	Cache      repository.PredictionCache
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Setup creates and configures the Gin router
func Setup(deps Deps) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Secure())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics(deps.Metrics))

	// Health endpoints
	healthHandler := handler.NewHealthHandler(deps.Classifier, deps.Cache)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Prometheus metrics
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Prediction
	predictHandler := handler.NewPredictHandler(deps.Predict)
	router.POST("/predict", predictHandler.Predict)

	// API v1 routes
	modelHandler := handler.NewModelHandler(deps.Classifier)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/model", modelHandler.Info)
		v1.POST("/predict", predictHandler.Predict)
	}

	return router
}
