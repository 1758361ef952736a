package eventpool

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// connectTimeout gates a single client's initial dial, per §4.8.
const connectTimeout = 2 * time.Second

// wireEvent is the envelope written to the wire for one emit, following the
// teacher's internal/gateway/websocket.WSMessage shape (a typed envelope
// with a data payload) adapted to the namespace/event/data shape
// emit_event expects.
type wireEvent struct {
	Namespace string                 `json:"namespace"`
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
}

// wsConn is the minimal surface Pool needs from a connection, so tests can
// substitute a fake transport without a real server.
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// gorillaConn adapts *websocket.Conn to wsConn.
type gorillaConn struct {
	conn *websocket.Conn
}

func (g *gorillaConn) WriteJSON(v interface{}) error { return g.conn.WriteJSON(v) }
func (g *gorillaConn) Close() error                  { return g.conn.Close() }

// dialer is swappable so tests can avoid real network dials.
type dialer func(serverURL, authToken string) (wsConn, error)

// dialGorilla connects an auto-reconnecting-by-convention websocket client
// (reconnection itself is handled by the batcher retrying on the next
// window; a single failed dial just fails this flush) to serverURL with
// auth.token carried as a query parameter, matching
// client.connect(url, auth={'token': ...}) in socketio_pool.py.
func dialGorilla(serverURL, authToken string) (wsConn, error) {
	wsURL := strings.Replace(serverURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	q := u.Query()
	q.Set("token", authToken)
	u.RawQuery = q.Encode()
	u.Path = "/socket.io/"

	d := websocket.Dialer{HandshakeTimeout: connectTimeout}
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return &gorillaConn{conn: conn}, nil
}

// pooledClient is one connection owned exclusively by the Pool for the
// duration of a single batch flush.
type pooledClient struct {
	id   string
	conn wsConn
}

func newConnID() string {
	return "pool_" + uuid.NewString()
}

// emit writes enhancedData for every event in the batch to the client's
// connection, tagging each payload with timestamp + batch_id per §4.8.
func (c *pooledClient) emit(namespace string, events []BatchEvent) error {
	batchID := fmt.Sprintf("batch_%d", time.Now().UnixMilli())

	for _, ev := range events {
		enhanced := make(map[string]interface{}, len(ev.Data)+2)
		for k, v := range ev.Data {
			enhanced[k] = v
		}
		enhanced["timestamp"] = ev.Timestamp.UTC().Format(time.RFC3339Nano)
		enhanced["batch_id"] = batchID

		payload := wireEvent{Namespace: namespace, Event: ev.Event, Data: enhanced}
		if err := c.conn.WriteJSON(payload); err != nil {
			return fmt.Errorf("emit %s/%s: %w", namespace, ev.Event, err)
		}
	}
	return nil
}
