package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[int64]*user.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

type stubTrips struct{ allowed map[int64]bool }

func (s stubTrips) CanJoinTrip(_ context.Context, _ *user.User, tripID int64) error {
	if s.allowed[tripID] {
		return nil
	}
	return errors.New("no access")
}

type wsFixture struct {
	hub    *Hub
	tokens *jwt.Service
	server *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	hub := NewHub()
	tokens := jwt.New("ws-test-secret", time.Hour)
	users := stubUsers{
		1: {ID: 1, Role: user.RoleManager, CompanyID: int64Ptr(3), IsActive: true},
		2: {ID: 2, Role: user.RoleDriver, CompanyID: int64Ptr(3), IsActive: false},
	}
	router := gin.New()
	NewHandler(hub, tokens, users, stubTrips{allowed: map[int64]bool{42: true}}, nil).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &wsFixture{hub: hub, tokens: tokens, server: server}
}

func (f *wsFixture) dial(t *testing.T, userID int64) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	if userID > 0 {
		token, err := f.tokens.GenerateToken(userID, "")
		require.NoError(t, err)
		url += "?token=" + token
	}
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServeWS_RejectsMissingOrInactive(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := f.dial(t, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = f.dial(t, 2)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_RegisterJoinsAccountRooms(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, 1)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "register", "data": map[string]interface{}{"userId": 1, "companyId": 99}}))
	frame := readFrame(t, conn)
	assert.Equal(t, "registered", frame["event"])
	assert.ElementsMatch(t, []interface{}{"user_1", "company_3", "manager_3"}, frame["data"].(map[string]interface{})["rooms"])

	// the client-supplied companyId is ignored
	assert.Equal(t, 0, f.hub.RoomSize(CompanyRoom(99)))

	NewGateway(NewLocalBroker(f.hub)).Emit(context.Background(), EventSupportNew, map[string]int{"id": 1}, ManagerRoom(3))
	assert.Equal(t, EventSupportNew, readFrame(t, conn)["event"])
}

func TestServeWS_RegisterAsAnotherUser(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, 1)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "register", "data": map[string]interface{}{"userId": 7}}))
	assert.Equal(t, "error", readFrame(t, conn)["event"])
	assert.Equal(t, 0, f.hub.RoomSize(UserRoom(7)))
}

func TestServeWS_JoinTrip(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, 1)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "join_trip", "data": map[string]interface{}{"tripId": 41}}))
	assert.Equal(t, "error", readFrame(t, conn)["event"])

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "join_trip", "data": map[string]interface{}{"tripId": 42}}))
	assert.Equal(t, "trip:joined", readFrame(t, conn)["event"])
	assert.Equal(t, 1, f.hub.RoomSize(TripRoom(42)))

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "leave_trip", "data": map[string]interface{}{"tripId": 42}}))
	assert.Equal(t, "trip:left", readFrame(t, conn)["event"])
	assert.Equal(t, 0, f.hub.RoomSize(TripRoom(42)))
}

func TestServeWS_DisconnectLeavesRooms(t *testing.T) {
	f := newWSFixture(t)
	conn, _, err := f.dial(t, 1)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "register", "data": map[string]interface{}{"userId": 1}}))
	readFrame(t, conn)
	require.Equal(t, 1, f.hub.RoomSize(UserRoom(1)))

	conn.Close()
	assert.Eventually(t, func() bool {
		return f.hub.RoomSize(UserRoom(1)) == 0 && f.hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
