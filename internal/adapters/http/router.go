package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docuhub/internal/adapters/collab"
	"docuhub/internal/auth"
	"docuhub/internal/config"
	"docuhub/internal/graph"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *collab.Controller, tokens *auth.TokenManager, drive *graph.Client) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORS(cfg.CORSOrigin))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "docuhub server running")
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	authHandler := &AuthHandler{Tokens: tokens, Graph: drive}
	authGroup := api.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", auth.Middleware(tokens), authHandler.Me)

	authed := auth.Middleware(tokens)
	NewDriveHandler(drive, "document", ".docx").Register(api.Group("/documents", authed))
	NewDriveHandler(drive, "spreadsheet", ".xlsx").Register(api.Group("/spreadsheets", authed))
	NewDriveHandler(drive, "presentation", ".pptx").Register(api.Group("/presentations", authed))

	api.GET("/collab/rooms", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, ctl.Coord.Rooms.List())
	})

	api.GET("/ws/collab", func(c *gin.Context) {
		ctl.HandleCollab(ctx, c)
	})

	return r
}
