// Package web gin server
package web

import (
	ginMw "github.com/Laisky/gin-middlewares/v7"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/officeours/drive-airtable-bridge/internal/web/bridge/controller"
	"github.com/officeours/drive-airtable-bridge/library/log"
)

var (
	server = gin.New()
)

// RunServer registers the bridge routes and blocks serving addr.
func RunServer(addr string, ctrl *controller.Bridge) {
	server.Use(
		gin.Recovery(),
		ginMw.NewLoggerMiddleware(
			ginMw.WithLoggerMwColored(),
			ginMw.WithLevel(log.Logger.Level().String()),
			ginMw.WithLogger(log.Logger.Named("gin")),
		),
	)
	if !gconfig.Shared.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := ginMw.EnableMetric(server); err != nil {
		log.Logger.Panic("enable metric server", zap.Error(err))
	}

	RegisterRoutes(server, ctrl)

	log.Logger.Info("listening on http", zap.String("addr", addr))
	log.Logger.Panic("httpServer exit", zap.Error(server.Run(addr)))
}

// RegisterRoutes mounts all bridge endpoints under the configured public
// prefix. Health is unauthenticated; attachments are public so the record
// database can download them within the retention window; everything else
// passes the auth gate.
func RegisterRoutes(server *gin.Engine, ctrl *controller.Bridge) {
	grp := server.Group(gconfig.Shared.GetString("settings.server.url_prefix"))

	grp.GET("/health", ctrl.Health)
	grp.GET("/attachments/:name", ctrl.ServeAttachment)

	authed := grp.Group("", AuthGate(
		gconfig.Shared.GetString("settings.server.token"),
		gconfig.Shared.GetString("settings.server.webhook_secret"),
	))
	authed.POST("/download-and-analyze-vision", ctrl.DownloadAndAnalyze)
	authed.POST("/rename-file", ctrl.RenameFile)
	authed.POST("/auto-rename-file", ctrl.AutoRenameFile)
	authed.POST("/auto-delete-file", ctrl.AutoDeleteFile)
	authed.DELETE("/auto-delete-file", ctrl.AutoDeleteFile)
	authed.POST("/upload-to-drive", ctrl.UploadToDrive)
	authed.GET("/temp-files", ctrl.TempFiles)
	authed.POST("/cleanup", ctrl.Cleanup)
}
