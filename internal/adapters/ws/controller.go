package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app/dispatch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
)

const writeWait = 5 * time.Second

// Controller owns the websocket side of the relay: it upgrades
// connections, mints their ids, and bridges frames between the sockets
// and the dispatcher inbox.
type Controller struct {
	hub      *Hub
	disp     *dispatch.Dispatcher
	cfg      *config.Config
	limiter  *EventRateLimiter
	upgrader websocket.Upgrader
}

func NewController(hub *Hub, disp *dispatch.Dispatcher, cfg *config.Config) *Controller {
	ctl := &Controller{
		hub:     hub,
		disp:    disp,
		cfg:     cfg,
		limiter: NewEventRateLimiter(cfg.EventLimit, cfg.EventInterval),
	}
	ctl.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return ctl
}

// originAllowed permits browserless clients (no Origin header) and any
// origin when the list is empty.
func originAllowed(allowed []string, origin string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}

// HandleWS upgrades the request, assigns a fresh connection id, and
// starts the pumps. The id lives exactly as long as the socket.
func (ctl *Controller) HandleWS(c *gin.Context) {
	socket, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}

	id := domain.ConnID(uuid.NewString())
	conn := newWSConn(socket, ctl.cfg.SendBuffer)
	ctl.hub.add(id, conn)
	ctl.disp.Connect(id)
	log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connection established")

	go ctl.writePump(id, conn)
	go ctl.readPump(id, conn)
}

func (ctl *Controller) readPump(id domain.ConnID, c *wsConn) {
	defer func() {
		ctl.hub.remove(id)
		ctl.limiter.Forget(id)
		ctl.disp.Disconnect(id)
		c.Close()
		log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connection closed")
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("read error")
			}
			return
		}
		if !ctl.limiter.Allow(id) {
			log.Warn().Str("module", "ws").Str("conn", string(id)).Msg("rate limited, frame dropped")
			continue
		}
		ctl.disp.Post(id, data)
	}
}

func (ctl *Controller) writePump(id domain.ConnID, c *wsConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
