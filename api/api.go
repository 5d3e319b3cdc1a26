package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"factorlens/internal/domain"
	"factorlens/internal/logger"
	l2_service "factorlens/internal/service/l2"
	"factorlens/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ApiHandler struct {
	Config                  util.Config
	FactorExpressionService l2_service.FactorExpressionService

	// Panel is served when a request does not carry its own. Requests
	// work on a copy, so concurrent runs never see each other's factor.
	Panel *domain.Panel
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(m.logRequestMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to factorlens"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/groupBacktest", m.groupBacktest)
	router.POST("/icTest", m.icTest)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	return m.InitializeRouterEngine().Run(fmt.Sprintf(":%d", port))
}

// returnErrorJson maps caller mistakes to 400 and everything else to 500.
func returnErrorJson(err error, c *gin.Context) {
	code := http.StatusInternalServerError
	if domain.IsContractError(err) {
		code = http.StatusBadRequest
	}
	returnErrorJsonCode(err, c, code)
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	log := logger.FromContext(c.Request.Context())
	if code >= http.StatusInternalServerError {
		log.Errorw("request failed", "error", err.Error())
	} else {
		log.Infow("rejected request", "error", err.Error())
	}
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) logRequestMiddleware(c *gin.Context) {
	requestID := uuid.New()
	c.Set("requestID", requestID.String())

	log := logger.FromContext(c.Request.Context()).With(
		"requestID", requestID.String(),
		"method", c.Request.Method,
		"route", c.Request.URL.Path,
	)
	ctx := logger.NewContext(c.Request.Context(), log)
	c.Request = c.Request.WithContext(ctx)

	start := time.Now()
	c.Next()

	log.Infow("handled request",
		"status", c.Writer.Status(),
		"ip", c.ClientIP(),
		"durationMs", time.Since(start).Milliseconds(),
	)
}

var errNoPanel = domain.InvalidInputError{Err: errors.New("request has no panel and the server was started without one")}
