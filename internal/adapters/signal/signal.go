package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Babel/internal/app/orch"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Settings struct {
	ReadLimit         int64
	PingPeriod        time.Duration
	SendBuffer        int
	UtteranceLimit    int
	UtteranceInterval time.Duration
	ICEServers        []webrtc.ICEServer
}

func (s Settings) withDefaults() Settings {
	if s.ReadLimit <= 0 {
		s.ReadLimit = 32768
	}
	if s.PingPeriod <= 0 {
		s.PingPeriod = 54 * time.Second
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = 64
	}
	if s.UtteranceLimit <= 0 {
		s.UtteranceLimit = 5
	}
	if s.UtteranceInterval <= 0 {
		s.UtteranceInterval = time.Second
	}
	return s
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	settings Settings
	limiter  *RoomRateLimiter
	validate *validator.Validate
}

func NewSignalWSController(o *orch.Orchestrator, s Settings) *SignalWSController {
	s = s.withDefaults()
	return &SignalWSController{
		Orch:     o,
		settings: s,
		limiter:  NewRoomRateLimiter(s.UtteranceLimit, s.UtteranceInterval),
		validate: validator.New(),
	}
}

// WsSignalConn is the event sink of one WebSocket connection.
type WsSignalConn struct {
	sid        core.SessionID
	token      string
	conn       *websocket.Conn
	send       chan []byte
	captions   chan utteranceMsg
	iceServers []webrtc.ICEServer

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, token string, s Settings) *WsSignalConn {
	return &WsSignalConn{
		sid:        core.SessionID(uuid.NewString()),
		token:      token,
		conn:       ws,
		send:       make(chan []byte, s.SendBuffer),
		captions:   make(chan utteranceMsg, s.UtteranceLimit),
		iceServers: s.ICEServers,
	}
}

// joinedFrame adds the transport's ICE configuration to the join ack.
type joinedFrame struct {
	domain.Joined
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// Send implements core.EventSink.
func (c *WsSignalConn) Send(e domain.Event) error {
	var v any = e
	if j, ok := e.(domain.Joined); ok {
		v = joinedFrame{Joined: j, ICEServers: c.iceServers}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.TrySend(b)
}

func (c *WsSignalConn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrSinkClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close implements core.EventSink. Safe to call more than once.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.settings.ReadLimit)

	conn := newConn(ws, token, ctl.settings)
	log.Info().Str("module", "signal").Str("sid", string(conn.sid)).Str("client", token).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.captionLoop(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
