package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/survey-service/internal/services"
	"github.com/SAP-F-2025/survey-service/internal/utils"
)

// RouterConfig carries the HTTP settings that do not belong to a service
type RouterConfig struct {
	AllowedOrigins  []string
	OptionsDir      string
	AnswerRateLimit float64
	AnswerRateBurst int
}

type HandlerManager struct {
	surveyHandler     *SurveyHandler
	responseHandler   *ResponseHandler
	respondentHandler *RespondentHandler
	placesHandler     *PlacesHandler
	serviceManager    services.ServiceManager
	answerLimiter     *IPRateLimiter
	config            RouterConfig
	logger            utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	config RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		surveyHandler:     NewSurveyHandler(serviceManager.Survey(), serviceManager.ImportExport(), logger),
		responseHandler:   NewResponseHandler(serviceManager.Response(), logger),
		respondentHandler: NewRespondentHandler(serviceManager.Respondent(), logger),
		placesHandler:     NewPlacesHandler(serviceManager.Places(), serviceManager.ImportExport(), logger),
		serviceManager:    serviceManager,
		answerLimiter:     NewIPRateLimiter(config.AnswerRateLimit, config.AnswerRateBurst, 10*time.Minute),
		config:            config,
		logger:            logger,
	}
}

// AnswerLimiter is the per-IP limiter guarding answer submission.
func (hm *HandlerManager) AnswerLimiter() *IPRateLimiter {
	return hm.answerLimiter
}

// NewRouter builds the gin engine with middleware and every route.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(utils.ContextLogger(hm.logger))
	router.Use(CORS(hm.config.AllowedOrigins))
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	if hm.config.OptionsDir != "" {
		router.Static("/static/options", hm.config.OptionsDir)
	}

	v1 := router.Group("/api/v1")
	{
		surveys := v1.Group("/surveys")
		{
			surveys.GET("", hm.surveyHandler.ListSurveys)
			surveys.GET("/:slug", hm.surveyHandler.GetSurvey)
			surveys.PUT("/:slug", hm.surveyHandler.LoadSurvey)
			surveys.GET("/:slug/stats", hm.surveyHandler.GetSurveyStats)
			surveys.GET("/:slug/export", hm.surveyHandler.ExportRespondents)

			// Respondent sessions
			surveys.GET("/:slug/respondents", hm.respondentHandler.ListRespondents)
			surveys.POST("/:slug/respondents", hm.responseHandler.StartRespondent)
			surveys.GET("/:slug/respondents/:uuid", hm.responseHandler.GetSession)
			surveys.POST("/:slug/respondents/:uuid/answers/:question",
				RateLimitByIP(hm.answerLimiter), hm.responseHandler.SubmitAnswer)
			surveys.POST("/:slug/respondents/:uuid/sync", hm.responseHandler.Sync)
		}

		respondents := v1.Group("/respondents")
		{
			respondents.GET("/:uuid", hm.respondentHandler.GetRespondent)
			respondents.PUT("/:uuid/review", hm.respondentHandler.UpdateReview)
		}

		places := v1.Group("/places")
		{
			places.GET("", hm.placesHandler.SearchPlaces)
			places.POST("/import", hm.placesHandler.ImportPlaces)
		}
	}
}

// HealthCheck reports whether the database answers
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.Repository().Ping(ctx); err != nil {
		hm.logger.LogError(err, "Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "survey-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "survey-service",
	})
}
