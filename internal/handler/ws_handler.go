package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oralis/viva-backend/internal/config"
	"github.com/oralis/viva-backend/internal/middleware"
	"github.com/oralis/viva-backend/internal/service"
	ws "github.com/oralis/viva-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live monitor events to examiners.
type WSHandler struct {
	rdb         *redis.Client
	vivaService *service.VivaService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, vivaService *service.VivaService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		vivaService: vivaService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/examiner/vivas/:viva_id/monitor
// Upgrades to WebSocket and relays the viva's live monitor events: session
// starts, scored answers, completions, and abandons.
func (h *WSHandler) MonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	vivaID, err := uuid.Parse(c.Param("viva_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid viva ID"})
		return
	}

	// Only the author may watch a viva.
	viva, err := h.vivaService.GetByID(c.Request.Context(), vivaID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "viva not found"})
		return
	}
	if viva.AuthorID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author of this viva"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("examiner_id", claims.UserID).
		Str("viva_id", vivaID.String()).
		Logger()

	wsLog.Info().Msg("Examiner connected to monitor")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.VivaMonitorChannel(vivaID.String()))
	defer sub.Close()

	// The relay goroutine and the ping replies below share this connection,
	// so all outbound frames go through a single writer.
	writer := ws.NewWriter(conn)
	defer writer.Close()

	// Relay pubsub → socket until either side drops.
	go func() {
		for msg := range sub.Channel() {
			var event ws.MonitorEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Warn().Err(err).Msg("Malformed monitor event")
				continue
			}
			if err := writer.Send(event); err != nil {
				wsLog.Debug().Err(err).Msg("Relay send failed")
				cancel()
				return
			}
		}
	}()

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			writer.Send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			writer.SendError("unknown action: " + string(msg.Action))
		}
	}
}
