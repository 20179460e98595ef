package realtime

import (
	"context"
	"log"
	"net/http"
	"strings"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/jwt"
	"smarttrack/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// TripAccess decides whether u may follow a trip's live updates.
type TripAccess interface {
	CanJoinTrip(ctx context.Context, u *user.User, tripID int64) error
}

type Handler struct {
	hub      *Hub
	tokens   *jwt.Service
	users    UserLookup
	trips    TripAccess
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. An empty origin list accepts
// any origin.
func NewHandler(hub *Hub, tokens *jwt.Service, users UserLookup, trips TripAccess, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		users:  users,
		trips:  trips,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.ServeWS)
}

// ServeWS authenticates with ?token= or a bearer header, then upgrades.
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "token is required")
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || !u.IsActive {
		response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[realtime] upgrade failed user_id=%d: %v", u.ID, err)
		return
	}

	client := newClient(h.hub, u, conn, h.trips)
	h.hub.add(client)
	log.Printf("[realtime] connected user_id=%d role=%s", u.ID, u.Role)

	go client.writePump()
	client.readPump()
	log.Printf("[realtime] disconnected user_id=%d", u.ID)
}
