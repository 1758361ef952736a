package eventpool

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"mpm/pkg/logger"
)

// wellKnownPorts mirrors _detect_server's common_ports probe list.
var wellKnownPorts = []int{8765, 8080, 8081, 8082, 8083, 8084, 8085}

// probeTimeout is the per-port connect timeout used during discovery.
const probeTimeout = 50 * time.Millisecond

// detectServer resolves the Socket.IO server URL per §4.8: the
// CLAUDE_MPM_SOCKETIO_PORT env var wins, then an explicit cfg.Port/URL,
// then a probe of wellKnownPorts on localhost, then the 8765 default.
func detectServer(cfg Config) (url string, port int) {
	if v := os.Getenv("CLAUDE_MPM_SOCKETIO_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			logger.Debugf("using socket.io server from environment: port %d", p)
			return fmt.Sprintf("http://localhost:%d", p), p
		}
	}

	if cfg.ServerURL != "" {
		return cfg.ServerURL, cfg.Port
	}

	if cfg.Port != 0 && probePort(cfg.Port) {
		return fmt.Sprintf("http://localhost:%d", cfg.Port), cfg.Port
	}

	for _, p := range wellKnownPorts {
		if probePort(p) {
			logger.Debugf("detected socket.io server on port %d", p)
			return fmt.Sprintf("http://localhost:%d", p), p
		}
	}

	logger.Debugf("no socket.io server detected, using default port 8765")
	return "http://localhost:8765", 8765
}

func probePort(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", port), probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
