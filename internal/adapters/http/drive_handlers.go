package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docuhub/internal/graph"
)

// DriveHandler serves the CRUD surface for one file kind. Documents,
// spreadsheets and presentations are the same handler parameterized by
// extension.
type DriveHandler struct {
	Graph *graph.Client
	Kind  string
	Ext   string
}

func NewDriveHandler(client *graph.Client, kind, ext string) *DriveHandler {
	return &DriveHandler{Graph: client, Kind: kind, Ext: ext}
}

// Register mounts the CRUD routes on the given (already auth-gated) group.
func (h *DriveHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.GET("/:id/content", h.GetContent)
	g.PUT("/:id/content", h.PutContent)
	g.DELETE("/:id", h.Delete)
}

func (h *DriveHandler) List(c *gin.Context) {
	items, err := h.Graph.Search(c.Request.Context(), h.Ext)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("list failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *DriveHandler) Get(c *gin.Context) {
	item, err := h.Graph.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("get failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *DriveHandler) GetContent(c *gin.Context) {
	content, err := h.Graph.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("get content failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", content)
}

type putContentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *DriveHandler) PutContent(c *gin.Context) {
	var req putContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "content is required", err)
		return
	}
	if err := h.Graph.UploadContent(c.Request.Context(), c.Param("id"), []byte(req.Content)); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("update content failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.Kind + " updated"})
}

type createRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content"`
}

func (h *DriveHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name is required", err)
		return
	}

	name := req.Name
	if !strings.HasSuffix(name, h.Ext) {
		name += h.Ext
	}
	item, err := h.Graph.Create(c.Request.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("create failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	if req.Content != "" {
		if err := h.Graph.UploadContent(c.Request.Context(), item.ID, []byte(req.Content)); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("initial content failed")
			respondError(c, http.StatusInternalServerError, "internal server error", err)
			return
		}
	}
	c.JSON(http.StatusCreated, item)
}

func (h *DriveHandler) Delete(c *gin.Context) {
	if err := h.Graph.Delete(c.Request.Context(), c.Param("id")); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("kind", h.Kind).Msg("delete failed")
		respondError(c, http.StatusInternalServerError, "internal server error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.Kind + " deleted"})
}
