package web

import (
	"net/http"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func GetRouter(webHandler *Handlers, withMetrics bool) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.CustomRecovery(recovered), GinLogger())
	if withMetrics {
		router.Use(metrics.PromReqMiddleware())
	}
	router.Use(Envelope())
	router.NoRoute(NoRoute)

	router.GET("/healthz", HealthCheckEndpoint)

	media := router.Group("/media")
	media.GET("/video", webHandler.VideoAuthRequired(), webHandler.GetVideo)
	media.GET("/thumbnail", webHandler.ThumbnailAuthRequired(), webHandler.GetThumbnail)

	return router
}

func recovered(c *gin.Context, _ interface{}) {
	abortWithError(c, http.StatusInternalServerError, "internal error")
}
