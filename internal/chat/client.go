package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vozbot/vozbot/internal/report"
)

// DefaultURL is Twitch's IRC-over-WebSocket endpoint.
const DefaultURL = "wss://irc-ws.chat.twitch.tv:443"

const (
	readTimeout  = 6 * time.Minute
	writeTimeout = 10 * time.Second
	maxBackoff   = 30 * time.Second
)

// ErrLoginFailed is returned by Run when the server rejects the token.
var ErrLoginFailed = errors.New("chat login failed: check the oauth token")

// errReconnect is returned by a session when the server asks us to move.
var errReconnect = errors.New("server requested reconnect")

// Config configures a Client.
type Config struct {
	URL     string
	Channel string
	Token   string
	// Nick defaults to Channel.
	Nick string
}

// Client reads one channel and forwards its messages.
type Client struct {
	cfg    Config
	events report.Emitter
	dialer *websocket.Dialer
	log    *log.Logger
	now    func() time.Time
}

// NewClient validates cfg and creates a client. events may be nil.
func NewClient(cfg Config, events report.Emitter) (*Client, error) {
	if err := ValidateToken(cfg.Token); err != nil {
		return nil, err
	}
	cfg.Channel = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Channel), "#"))
	if cfg.Channel == "" {
		return nil, errors.New("chat channel is required")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Nick == "" {
		cfg.Nick = cfg.Channel
	}
	if events == nil {
		events = report.Discard
	}
	return &Client{
		cfg:    cfg,
		events: events,
		dialer: websocket.DefaultDialer,
		log:    log.WithPrefix("chat"),
		now:    time.Now,
	}, nil
}

// Run connects and sends every chat message on out until ctx is done,
// reconnecting with backoff when the connection drops. A rejected token
// ends Run with ErrLoginFailed. Sends block, so out
// should be buffered.
func (c *Client) Run(ctx context.Context, out chan<- Message) error {
	backoff := time.Second
	for {
		start := c.now()
		err := c.session(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrLoginFailed) {
			return err
		}
		if c.now().Sub(start) > maxBackoff {
			backoff = time.Second
		}
		if errors.Is(err, errReconnect) {
			c.log.Info("Reconnecting to chat")
			continue
		}
		c.log.Warn("Chat connection lost", "err", err, "retry", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (c *Client) session(ctx context.Context, out chan<- Message) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial chat: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage on shutdown.
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for _, line := range []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS " + c.cfg.Token,
		"NICK " + c.cfg.Nick,
		"JOIN #" + c.cfg.Channel,
	} {
		if err := c.send(conn, line); err != nil {
			return err
		}
	}
	c.log.Info("Connected to chat", "channel", c.cfg.Channel)
	c.events.Emit(report.TypeSystem, map[string]any{"status": "connected", "channel": c.cfg.Channel})

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read chat: %w", err)
		}
		// One frame may carry several IRC lines.
		for _, line := range strings.Split(string(data), "\r\n") {
			if line == "" {
				continue
			}
			if err := c.handle(ctx, conn, line, out); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, conn *websocket.Conn, line string, out chan<- Message) error {
	msg, command, ok := parseLine(line, c.now())
	switch {
	case command == "PING":
		_, payload, _ := strings.Cut(line, " ")
		return c.send(conn, "PONG "+payload)
	case command == "RECONNECT":
		return errReconnect
	case command == "NOTICE" && strings.Contains(line, "Login authentication failed"):
		return ErrLoginFailed
	case !ok:
		return nil
	}

	c.log.Debug("Message", "user", msg.Username, "text", msg.Text)
	c.events.Emit(report.TypeChat, msg.Fields())

	select {
	case out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) send(conn *websocket.Conn, line string) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n")); err != nil {
		return fmt.Errorf("write chat: %w", err)
	}
	return nil
}
