package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zerolog.Nop())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := int64(1)
		if r.URL.Query().Get("unit") == "2" {
			id = 2
		}
		h.Serve(w, r, id)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// publishUntil republishes until the hub has registered the subscriber and
// delivered, since registration completes after the handshake.
func publishUntil(h *Hub, unitID int64, stop <-chan struct{}) {
	for {
		h.Publish(unitID, "unit_updated", map[string]int{"rating": 300})
		select {
		case <-stop:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestHubDeliversToSubscribersOfUnit(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv, "unit=1")

	stop := make(chan struct{})
	defer close(stop)
	go publishUntil(h, 1, stop)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var m struct {
		Type    string         `json:"type"`
		UnitID  int64          `json:"unit_id"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "unit_updated", m.Type)
	assert.Equal(t, int64(1), m.UnitID)
	assert.Equal(t, 300, m.Payload["rating"])
}

func TestHubIgnoresOtherUnits(t *testing.T) {
	h, srv := startHub(t)
	conn := dial(t, srv, "unit=2")

	stop := make(chan struct{})
	go publishUntil(h, 1, stop)
	time.Sleep(150 * time.Millisecond)
	close(stop)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zerolog.Nop())
	finished := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(finished)
	}()
	cancel()
	<-finished

	start := time.Now()
	for i := 0; i < 100; i++ {
		h.Publish(1, "unit_updated", nil)
	}
	// the broadcast buffer or the closed hub absorbs these without waiting
	assert.Less(t, time.Since(start), time.Second)
}
