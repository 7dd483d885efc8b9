package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/apps"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/panels"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MoltOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/installer"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/status"
	"github.com/GriffinCanCode/MoltOS/backend/internal/services/updater"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams desktop sessions over WebSocket
type Handler struct {
	sessions  *session.Manager
	status    *status.Simulator
	installer *installer.Service
	updater   *updater.Service
	metrics   *monitoring.Metrics
	logger    *logging.Logger
}

// NewHandler creates a WebSocket handler
func NewHandler(sessions *session.Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		logger:   logger.Named("ws"),
	}
}

// WithMetrics adds connection and message counters
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// WithFeeds pushes status, installer and updater changes to every
// connection. Nil services are skipped.
func (h *Handler) WithFeeds(st *status.Simulator, inst *installer.Service, upd *updater.Service) *Handler {
	h.status = st
	h.installer = inst
	h.updater = upd
	return h
}

// HandleConnection upgrades GET /sessions/:id/stream
func (h *Handler) HandleConnection(c *gin.Context) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
		return
	}
	s, detach, err := h.sessions.Attach(sid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	defer detach()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		session: s,
		out:     make(chan Frame, sendBuffer),
		dirty:   make(chan struct{}, 1),
		h:       h,
	}
	cl.logger = h.logger.With(zap.String("conn_id", cl.id), zap.String("session_id", string(sid)))
	cl.serve(c.Request.Context())
}

// client is one connection. Only the write loop touches conn for writes.
type client struct {
	id      string
	conn    *websocket.Conn
	session *session.Session
	out     chan Frame
	dirty   chan struct{}
	h       *Handler
	logger  *logging.Logger
}

func (cl *client) serve(parent context.Context) {
	h := cl.h
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	cl.logger.Debug("stream opened")

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		cl.writeLoop(ctx)
		// Unblocks the read loop when the writer gave up first
		cl.conn.Close()
	}()

	unsubscribe := cl.subscribe()
	cl.enqueue(Frame{Type: TypeHello, Data: Hello{ConnectionID: cl.id, SessionID: cl.session.ID}})
	cl.markDirty()

	cl.readLoop()

	unsubscribe()
	cancel()
	<-done
	cl.logger.Debug("stream closed")
}

func (cl *client) subscribe() func() {
	h := cl.h
	d := cl.session.Desktop
	unsubs := []func(){
		d.Subscribe(func(window.Event) { cl.markDirty() }),
		d.Panels.Chat.Subscribe(func(m panels.Message) {
			cl.enqueue(Frame{Type: TypeChatMessage, Data: m})
		}),
	}
	if h.status != nil {
		unsubs = append(unsubs, h.status.Subscribe(func(st status.Status) {
			cl.enqueue(Frame{Type: TypeStatus, Data: st})
		}))
	}
	if h.installer != nil {
		unsubs = append(unsubs, h.installer.Subscribe(func(st installer.State) {
			cl.enqueue(Frame{Type: TypeInstaller, Data: st})
		}))
	}
	if h.updater != nil {
		unsubs = append(unsubs, h.updater.Subscribe(func(st updater.State) {
			cl.enqueue(Frame{Type: TypeUpdate, Data: st})
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// markDirty schedules a desktop frame. Bursts collapse into one.
func (cl *client) markDirty() {
	select {
	case cl.dirty <- struct{}{}:
	default:
	}
}

// enqueue never blocks the publisher; a full buffer drops the frame.
func (cl *client) enqueue(f Frame) {
	select {
	case cl.out <- f:
	default:
		cl.logger.Warn("send buffer full, dropping frame", zap.String("type", f.Type))
	}
}

func (cl *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = cl.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-cl.dirty:
			if err := cl.write(Frame{Type: TypeDesktop, Data: viewOf(cl.session.Desktop)}); err != nil {
				return
			}
		case f := <-cl.out:
			if err := cl.write(f); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (cl *client) write(f Frame) error {
	data, err := sonic.Marshal(f)
	if err != nil {
		cl.logger.Error("encode frame", zap.String("type", f.Type), zap.Error(err))
		return nil
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		cl.logger.Debug("write failed", zap.Error(err))
		return err
	}
	if cl.h.metrics != nil {
		cl.h.metrics.RecordWSMessage("out", f.Type)
	}
	return nil
}

func (cl *client) readLoop() {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.h.sessions.Touch(cl.session.ID)
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.logger.Warn("read failed", zap.Error(err))
			}
			return
		}
		_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			cl.sendError(0, "invalid message format")
			continue
		}
		if cl.h.metrics != nil {
			cl.h.metrics.RecordWSMessage("in", msg.Type)
		}

		// A pruned or deleted session ends the stream
		if _, err := cl.h.sessions.Get(cl.session.ID); err != nil {
			cl.sendError(msg.Seq, err.Error())
			return
		}

		switch msg.Type {
		case TypePing:
			cl.enqueue(Frame{Type: TypePong, Seq: msg.Seq})
		case TypePointer:
			cl.handlePointer(msg)
		case TypeWindow:
			cl.handleWindow(msg)
		default:
			cl.sendError(msg.Seq, fmt.Sprintf("unknown message type: %q", msg.Type))
		}
	}
}

func (cl *client) handlePointer(msg Inbound) {
	wid, err := id.ParseWindowID(msg.WindowID)
	if err != nil {
		cl.sendError(msg.Seq, err.Error())
		return
	}
	if msg.Event == nil {
		cl.sendError(msg.Seq, "pointer message needs an event")
		return
	}
	if err := msg.Event.Validate(); err != nil {
		cl.sendError(msg.Seq, err.Error())
		return
	}
	res := cl.session.Desktop.Pointer(wid, *msg.Event)
	if cl.h.metrics != nil {
		cl.h.metrics.RecordGesture(string(res.Action))
	}
	cl.enqueue(Frame{Type: TypePointerResult, Seq: msg.Seq, Data: PointerReply{WindowID: wid, Result: res}})
}

func (cl *client) handleWindow(msg Inbound) {
	wm := cl.session.Desktop.Windows
	ack := Ack{Op: msg.Op}

	if msg.Op == OpOpen {
		appID, err := apps.Parse(msg.AppID)
		if err != nil {
			cl.sendError(msg.Seq, err.Error())
			return
		}
		wid, err := wm.Open(appID)
		if err != nil {
			cl.sendError(msg.Seq, err.Error())
			return
		}
		ack.Applied = true
		ack.WindowID = wid
		ack.ActiveWindowID = wm.ActiveWindowID()
		cl.enqueue(Frame{Type: TypeAck, Seq: msg.Seq, Data: ack})
		return
	}
	if msg.Op == OpMinimizeAll {
		ack.Minimized = wm.MinimizeAll()
		ack.Applied = ack.Minimized > 0
		ack.ActiveWindowID = wm.ActiveWindowID()
		cl.enqueue(Frame{Type: TypeAck, Seq: msg.Seq, Data: ack})
		return
	}

	wid, err := id.ParseWindowID(msg.WindowID)
	if err != nil {
		cl.sendError(msg.Seq, err.Error())
		return
	}
	op, err := windowOp(msg)
	if err != nil {
		cl.sendError(msg.Seq, err.Error())
		return
	}
	ack.WindowID = wid
	ack.Applied = op(wm, wid)
	ack.ActiveWindowID = wm.ActiveWindowID()
	cl.enqueue(Frame{Type: TypeAck, Seq: msg.Seq, Data: ack})
}

var errUnknownOp = errors.New("unknown window op")

func windowOp(msg Inbound) (func(*window.Manager, id.WindowID) bool, error) {
	switch msg.Op {
	case OpClose:
		return (*window.Manager).Close, nil
	case OpMinimize:
		return (*window.Manager).Minimize, nil
	case OpMaximize:
		return (*window.Manager).Maximize, nil
	case OpRestore:
		return (*window.Manager).Restore, nil
	case OpFocus:
		return (*window.Manager).Focus, nil
	case OpMove:
		return func(m *window.Manager, wid id.WindowID) bool { return m.Move(wid, msg.X, msg.Y) }, nil
	case OpResize:
		return func(m *window.Manager, wid id.WindowID) bool { return m.Resize(wid, msg.Width, msg.Height) }, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownOp, msg.Op)
	}
}

func (cl *client) sendError(seq uint64, message string) {
	cl.enqueue(Frame{Type: TypeError, Seq: seq, Error: message})
}
