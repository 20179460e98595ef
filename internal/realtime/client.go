package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"smarttrack/internal/domain/user"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	commandTimeout = 5 * time.Second
)

// Client is one websocket connection. rooms is guarded by the hub lock.
type Client struct {
	hub   *Hub
	user  *user.User
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
	trips TripAccess
}

func newClient(hub *Hub, u *user.User, conn *websocket.Conn, trips TripAccess) *Client {
	return &Client{
		hub:   hub,
		user:  u,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
		trips: trips,
	}
}

func (c *Client) reply(event string, data interface{}) {
	frame, err := encodeFrame(event, data, time.Now())
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
		framesDropped.Inc()
	}
}

func (c *Client) handle(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(eventError, map[string]string{"message": "invalid frame"})
		return
	}

	switch msg.Event {
	case cmdRegister:
		var data registerData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.UserID == 0 {
			c.reply(eventError, map[string]string{"message": "register requires userId"})
			return
		}
		if data.UserID != c.user.ID {
			c.reply(eventError, map[string]string{"message": "cannot register as another user"})
			return
		}
		rooms := RoomsFor(c.user)
		for _, room := range rooms {
			c.hub.Join(c, room)
		}
		c.reply(eventRegistered, map[string]interface{}{"rooms": rooms})

	case cmdJoinTrip, cmdLeaveTrip:
		var data tripData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.TripID <= 0 {
			c.reply(eventError, map[string]string{"message": "tripId is required"})
			return
		}
		room := TripRoom(data.TripID)
		if msg.Event == cmdLeaveTrip {
			c.hub.Leave(c, room)
			c.reply(eventTripLeft, data)
			return
		}
		if c.trips == nil {
			c.reply(eventError, map[string]interface{}{"message": "cannot join trip", "tripId": data.TripID})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := c.trips.CanJoinTrip(ctx, c.user, data.TripID); err != nil {
			c.reply(eventError, map[string]interface{}{"message": "cannot join trip", "tripId": data.TripID})
			return
		}
		c.hub.Join(c, room)
		c.reply(eventTripJoined, data)

	case cmdPing:
		c.reply(eventPong, nil)

	default:
		c.reply(eventError, map[string]string{"message": "unknown event: " + msg.Event})
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[realtime] read error user_id=%d: %v", c.user.ID, err)
			}
			return
		}
		c.handle(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
