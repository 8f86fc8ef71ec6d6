package server

import (
	"time"

	"github.com/artmirror-io/artmirror/internal/config"
	"github.com/artmirror-io/artmirror/internal/modules/handler"
	"github.com/gin-gonic/gin"
	swagfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/artmirror-io/artmirror/docs"
)

// NewRouter wires the HTTP surface. Everything behind these routes goes
// through the operation dispatcher or the ingest pipeline.
func NewRouter(cfg *config.Config, log *zap.Logger, rec *handler.RecordHandler, ing *handler.IngestHandler) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog(log))
	if cfg.Otel.Enabled {
		r.Use(otelgin.Middleware(cfg.App.Name))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swagfiles.Handler))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/records", rec.FetchRecords)
		v1.POST("/records", rec.CreateRecord)
		v1.PATCH("/records/:id", rec.UpdateRecord)
		v1.DELETE("/records/:id", rec.DeleteRecord)
		v1.POST("/records/:id/mirror", ing.MirrorRecord)
		v1.POST("/ingest", ing.Ingest)
		v1.GET("/ingest/runs", ing.ListRuns)
	}

	return r
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}
