// Package ws is the websocket transport adapter: one connection per
// participant, a read/write pump pair each, inbound dispatch into the
// session coordinator.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/config"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/dkeye/watchparty/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Coord   *app.Coordinator
	Uploads *storage.UploadStore
	Cfg     *config.Config
}

func NewController(coord *app.Coordinator, uploads *storage.UploadStore, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, Uploads: uploads, Cfg: cfg}
}

// HandleWS upgrades the request and runs the connection until it dies.
// Each connection gets a fresh participant id; the disconnect path is the
// only teardown signal.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}

	pid := domain.ParticipantID(uuid.NewString())
	log.Info().Str("module", "ws").Str("pid", string(pid)).Msg("new WS connection")

	wc := newConn(conn)
	ctl.Coord.Connect(pid, wc)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, wc)
	go ctl.readPump(ctx, cancel, pid, wc)
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, pid domain.ParticipantID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("pid", string(pid)).Msg("readPump closing")
		cancel()
		ctl.Coord.Disconnect(pid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	deadline := ctl.Cfg.PingPeriod + 10*time.Second
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("pid", string(pid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(pid, c, data)
		}
	}
}
