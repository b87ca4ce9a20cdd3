package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-relay/modules/activity"
	"github.com/example/room-relay/modules/relay"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// mockRoomPort implements relay.RoomPort for testing
type mockRoomPort struct {
	listRoomsFunc  func(ctx context.Context) ([]relay.RoomInfo, error)
	createRoomFunc func(ctx context.Context, name string) (string, error)
	getRoomFunc    func(ctx context.Context, roomID string) (relay.RoomInfo, error)
}

func (m *mockRoomPort) ListRooms(ctx context.Context) ([]relay.RoomInfo, error) {
	if m.listRoomsFunc != nil {
		return m.listRoomsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRoomPort) CreateRoom(ctx context.Context, name string) (string, error) {
	if m.createRoomFunc != nil {
		return m.createRoomFunc(ctx, name)
	}
	return "", errors.New("not implemented")
}

func (m *mockRoomPort) GetRoom(ctx context.Context, roomID string) (relay.RoomInfo, error) {
	if m.getRoomFunc != nil {
		return m.getRoomFunc(ctx, roomID)
	}
	return relay.RoomInfo{}, errors.New("not implemented")
}

type fixedStats activity.Stats

func (s fixedStats) Snapshot() activity.Stats { return activity.Stats(s) }

func newTestModule(rooms relay.RoomPort) *APIModule {
	m := NewModule("127.0.0.1:0", "*", &mockLogger{})
	m.rooms = rooms
	return m
}

func doRequest(t *testing.T, m *APIModule, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.newApp().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestListRooms(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rooms := &mockRoomPort{
		listRoomsFunc: func(context.Context) ([]relay.RoomInfo, error) {
			return []relay.RoomInfo{
				{ID: "r1", Name: "lobby", Users: []string{"alice"}, CreatedAt: created},
				{ID: "r2", Name: "empty", CreatedAt: created},
			}, nil
		},
	}
	m := newTestModule(rooms)

	for _, path := range []string{"/api/v1/rooms", "/room"} {
		t.Run(path, func(t *testing.T) {
			status, body := doRequest(t, m, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, status)

			var got []RoomResponse
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			require.Len(t, got, 2)
			assert.Equal(t, "r1", got[0].ID)
			assert.Equal(t, []string{"alice"}, got[0].Users)
			assert.Equal(t, []string{}, got[1].Users)
			assert.True(t, created.Equal(got[0].CreatedAt))
		})
	}
}

func TestListRooms_Failure(t *testing.T) {
	m := newTestModule(&mockRoomPort{})

	status, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, `"list_failed"`)
}

func TestCreateRoom(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		body           string
		createErr      error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "created",
			path:           "/api/v1/rooms",
			body:           `{"name":"general"}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"id":"room-general"}`,
		},
		{
			name:           "created on legacy path",
			path:           "/room",
			body:           `{"name":"general"}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"id":"room-general"}`,
		},
		{
			name:           "invalid body",
			path:           "/api/v1/rooms",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid_request"`,
		},
		{
			name:           "rejected name",
			path:           "/api/v1/rooms",
			body:           `{"name":""}`,
			createErr:      relay.ErrInvalidRoomName,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"validation_error"`,
		},
		{
			name:           "service failure",
			path:           "/api/v1/rooms",
			body:           `{"name":"general"}`,
			createErr:      errors.New("timeout"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"create_failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModule(&mockRoomPort{
				createRoomFunc: func(_ context.Context, name string) (string, error) {
					if tt.createErr != nil {
						return "", tt.createErr
					}
					return "room-" + name, nil
				},
			})

			status, body := doRequest(t, m, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Contains(t, body, tt.expectedBody)
		})
	}
}

func TestGetRoom(t *testing.T) {
	rooms := &mockRoomPort{
		getRoomFunc: func(_ context.Context, roomID string) (relay.RoomInfo, error) {
			switch roomID {
			case "r1":
				return relay.RoomInfo{ID: "r1", Name: "lobby", Users: []string{"alice", "bob"}}, nil
			case "broken":
				return relay.RoomInfo{}, errors.New("timeout")
			default:
				return relay.RoomInfo{}, relay.ErrRoomNotFound
			}
		},
	}
	m := newTestModule(rooms)

	status, body := doRequest(t, m, http.MethodGet, "/api/v1/rooms/r1", "")
	require.Equal(t, http.StatusOK, status)
	var got RoomResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "lobby", got.Name)
	assert.Equal(t, []string{"alice", "bob"}, got.Users)

	status, body = doRequest(t, m, http.MethodGet, "/room/missing", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, `"not_found"`)

	status, _ = doRequest(t, m, http.MethodGet, "/api/v1/rooms/broken", "")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestHealth(t *testing.T) {
	m := newTestModule(&mockRoomPort{})
	m.SetStats(fixedStats{RoomsOpened: 3, RoomsClosed: 1, Joins: 5, Departures: 2, LiveSessions: 3})

	status, body := doRequest(t, m, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)

	var got HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "healthy", got.Status)
	require.NotNil(t, got.Activity)
	assert.Equal(t, int64(3), got.Activity.LiveSessions)

	health := m.Health(context.Background())
	assert.False(t, health.Healthy, "not healthy before Start")
	assert.Equal(t, int64(3), health.Details["live_sessions"])
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	m := newTestModule(&mockRoomPort{})

	status, body := doRequest(t, m, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
	assert.Contains(t, body, `"upgrade_required"`)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusUpgradeRequired, want: "upgrade_required"},
		{status: http.StatusNotFound, want: "not_found"},
		{status: http.StatusMethodNotAllowed, want: "method_not_allowed"},
		{status: http.StatusRequestEntityTooLarge, want: "bad_request"},
		{status: http.StatusInternalServerError, want: "server_error"},
		{status: http.StatusServiceUnavailable, want: "server_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.status), "status %d", tt.status)
	}
}

func TestUnknownRoute(t *testing.T) {
	m := newTestModule(&mockRoomPort{})

	status, body := doRequest(t, m, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, `"not_found"`)
}

func TestStart_RequiresDependencies(t *testing.T) {
	m := NewModule("127.0.0.1:0", "*", &mockLogger{})
	assert.Error(t, m.Start(context.Background()))

	m.rooms = &mockRoomPort{}
	assert.Error(t, m.Start(context.Background()), "session server is required")
}

func TestModuleMetadata(t *testing.T) {
	m := NewModule("127.0.0.1:0", "*", &mockLogger{})
	assert.Equal(t, "api", m.Name())
	assert.Equal(t, []string{"relay"}, m.Dependencies())
	assert.NoError(t, m.Stop(context.Background()))
}
