package livefeed

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	maxRetries     = 10
	baseRetryDelay = 2 * time.Second
	maxRetryDelay  = 60 * time.Second

	pingPeriod = 30 * time.Second
	// Samples arrive every 5 minutes, pongs keep the deadline moving in between
	readTimeout = 3 * pingPeriod
)

// StartListener follows the /ws feed at host and calls funcToCall for each sample.
// It reconnects with exponential backoff and gives up after maxRetries failed
// attempts in a row. Returns nil once ctx is done.
func StartListener(ctx context.Context, host string, funcToCall func(sample *types.Sample)) error {
	log := logging.WithComponent("livefeed")

	// WebSocket server URL
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}

	retryCount := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		if retryCount > 0 {
			// Calculate retry delay with exponential backoff
			retryDelay := time.Duration(1<<(retryCount-1)) * baseRetryDelay
			if retryDelay > maxRetryDelay {
				retryDelay = maxRetryDelay
			}
			log.Infof("Retrying connection in %v... (attempt %d/%d)", retryDelay, retryCount+1, maxRetries)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil
			}
		}

		log.Infof("Connecting to %s", u.String())

		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		c, _, err := dialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Warn("Connection failed")
			retryCount++
			if retryCount >= maxRetries {
				return fmt.Errorf("giving up on %s after %d attempts: %w", u.String(), maxRetries, err)
			}
			continue
		}

		log.Info("Connected! Accepting samples.")
		retryCount = 0

		connectionBroken := handleConnection(ctx, c, log, funcToCall)
		c.Close()

		if !connectionBroken {
			// Clean shutdown requested
			return nil
		}
		log.Warn("Connection lost, will retry...")
		retryCount = 1
	}
}

// handleConnection reads samples until the connection breaks (true) or ctx is done (false).
func handleConnection(
	ctx context.Context,
	c *websocket.Conn,
	log *logrus.Entry,
	funcToCall func(sample *types.Sample),
) bool {
	done := make(chan struct{})

	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		defer close(done)
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					log.WithError(err).Warn("WebSocket error")
				} else {
					log.WithError(err).Debug("Connection closed")
				}
				return
			}
			c.SetReadDeadline(time.Now().Add(readTimeout))

			if messageType != websocket.TextMessage {
				log.Warnf("Received unexpected message type: %d", messageType)
				continue
			}
			if sample := types.SampleFromJsonBytes(message); sample != nil {
				funcToCall(sample)
			} else {
				log.Warnf("Failed to parse sample: %s", string(message))
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return true
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.WithError(err).Warn("Failed to send ping")
			}
		case <-ctx.Done():
			log.Info("Closing connection...")
			err := c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			if err != nil {
				log.WithError(err).Debug("Error sending close message")
			}

			// Wait for close confirmation or timeout
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return false
		}
	}
}
