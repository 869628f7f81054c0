package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safespace/request-service/api"
	"github.com/safespace/request-service/internal/auth"
	"github.com/safespace/request-service/internal/handler"
	"github.com/safespace/request-service/internal/service"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
)

func New(
	requests *handler.RequestHandler,
	specialists *handler.SpecialistHandler,
	verifier *auth.Verifier,
	dir service.DirectoryServicer,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(PathHealth, handler.Health)
	r.GET(PathReady, handler.Ready)
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = PathSwagger + "/index.html"
			c.Request.RequestURI = PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1", auth.Required(verifier))
	{
		v1.POST("/requests", requests.Create)
		v1.GET("/specialists/me", specialists.Me)
		v1.POST("/specialists", specialists.Create)
		v1.PUT("/specialists/:id", specialists.Update)
		v1.POST("/specialists/me/avatar", specialists.UploadAvatar)
		v1.GET("/specialists/:id/avatar", specialists.AvatarURL)
	}

	// Маршруты специалистов: требуется запись в каталоге.
	sp := v1.Group("", auth.SpecialistRequired(dir))
	{
		sp.GET("/requests", requests.List)
		sp.GET("/requests/accepted", requests.ListAccepted)
		sp.GET("/requests/pending/count", requests.CountPending)
		sp.POST("/requests/:id/accept", requests.Accept)
		sp.POST("/requests/:id/close", requests.Close)
	}

	return r
}
