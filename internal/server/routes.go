package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardtable/tabletop-server-go/internal/config"
	"github.com/cardtable/tabletop-server-go/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients are served from arbitrary origins; the table model
		// carries no credentials.
		return true
	},
}

// SetupRouter builds the HTTP surface: table lifecycle, state reads, and the
// websocket endpoint.
func SetupRouter(hub *Hub, sessions *session.Manager, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/tables", createTableHandler(hub))
	r.GET("/tables/:tableId/state", tableStateHandler(hub))
	r.GET("/tables/:tableId/checksum", tableChecksumHandler(hub, logger))
	r.GET("/definitions/:definitionId", cardDefinitionHandler(hub, logger))
	r.GET("/ws/:tableId", websocketHandler(hub, sessions, cfg.ReadLimitBytes, logger))

	return r
}

type createTableRequest struct {
	Name    string `json:"name"`
	Players []Seat `json:"players" binding:"required"`
}

func createTableHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tableID, err := hub.CreateTable(req.Name, req.Players)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"tableId": tableID})
	}
}

func tableStateHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := hub.Table(c.Param("tableId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tableId": t.ID(), "state": t.State()})
	}
}

func tableChecksumHandler(hub *Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := hub.Table(c.Param("tableId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}
		checksum, err := t.Snapshot().ComputeChecksum()
		if err != nil {
			logger.Error("checksum computation failed",
				zap.String("table_id", t.ID()),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checksum failed"})
			return
		}
		c.JSON(http.StatusOK, checksum)
	}
}

// cardDefinitionHandler serves card display metadata for the presentation
// layer. The table runs without a catalog; the route then reports that.
func cardDefinitionHandler(hub *Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub.catalogRepo == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
			return
		}
		def, err := hub.catalogRepo.LookupDefinition(c.Request.Context(), c.Param("definitionId"))
		if err != nil {
			logger.Error("definition lookup failed",
				zap.String("definition_id", c.Param("definitionId")),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "definition lookup failed"})
			return
		}
		if def == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "definition not found"})
			return
		}
		c.JSON(http.StatusOK, def)
	}
}

func websocketHandler(hub *Hub, sessions *session.Manager, readLimit int64, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, ok := hub.Table(c.Param("tableId"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		playerID := c.Query("playerId")
		playerName := c.Query("name")
		if playerID != "" {
			if _, seated := t.State().Player(playerID); !seated {
				c.JSON(http.StatusForbidden, gin.H{"error": "player not seated at table"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		sessionID := ""
		if playerID != "" {
			sess := sessions.CreateSession(t.ID(), playerID, playerName)
			sessionID = sess.ID
		}

		client := NewClient(conn, t, playerID, sessionID, readLimit, logger)
		client.Run()

		if sessionID != "" {
			sessions.RemoveSession(sessionID)
		}
	}
}
