package client

import (
	"time"

	"github.com/gong-cli/gong/protocol"
)

// heartbeatLoop periodically emits a zero-length heartbeat chunk under the
// shared frame mutex so the server keeps the session alive during
// long-running commands and idle periods. It stops when the stop channel
// closes or when a write fails against a torn-down socket; Close blocks on
// the done channel until then.
func (c *Client) heartbeatLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	log := c.log.Named("heartbeat")

	ticker := time.NewTicker(c.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			log.Debug("stopping on close")
			return
		case <-ticker.C:
		}
		if err := c.writeChunk(protocol.KindHeartbeat, nil); err != nil {
			log.Debugf("stopping after write error: %s", err)
			return
		}
	}
}
