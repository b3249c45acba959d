package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/port/in/session"
	"x-katamari/backend/internal/steering"
)

// Config настройки адаптера
type Config struct {
	StaticDir      string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// WSAdapter адаптер для WebSocket соединений рендерера и ботов
type WSAdapter struct {
	upgrader websocket.Upgrader
	session  session.SessionPort
	hub      *Hub
	cfg      Config
	logger   *zap.Logger
}

// NewWSAdapter создает новый экземпляр WSAdapter
func NewWSAdapter(sessionPort session.SessionPort, hub *Hub, cfg Config, logger *zap.Logger) *WSAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSAdapter{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		session: sessionPort,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
	}
}

// Handler маршруты сервера: /ws, /api/state и статика клиента
func (a *WSAdapter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.HandleWS)
	mux.HandleFunc("/api/state", a.handleState)
	if a.cfg.StaticDir != "" {
		if st, err := os.Stat(a.cfg.StaticDir); err == nil && st.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(a.cfg.StaticDir)))
		} else {
			a.logger.Warn("[WSAdapter] каталог статики недоступен", zap.String("dir", a.cfg.StaticDir))
		}
	}
	return mux
}

func (a *WSAdapter) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewStateMessage(a.session.Snapshot())); err != nil {
		a.logger.Warn("[WSAdapter] ошибка отправки состояния", zap.Error(err))
	}
}

// HandleWS обрабатывает WebSocket соединения
func (a *WSAdapter) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("[WSAdapter] ошибка установки соединения", zap.Error(err))
		return
	}
	if a.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(a.cfg.MaxMessageSize)
	}

	writer := NewSafeWriter(conn, a.cfg.WriteTimeout)

	// Регистрируемся до снимка сцены: событие между ними придет дважды,
	// клиент отбрасывает повтор по id
	c := a.hub.register(writer)
	defer func() {
		a.hub.unregister(c)
		writer.Close()
	}()

	a.logger.Info("[WSAdapter] клиент подключен",
		zap.Uint64("client", c.id), zap.String("remote", conn.RemoteAddr().String()))

	if err := writer.WriteJSON(NewInfoMessage("connected to katamari server")); err != nil {
		return
	}
	scene := NewSceneMessage(a.session.Scene())
	if err := writer.WriteJSON(scene); err != nil {
		a.logger.Warn("[WSAdapter] ошибка отправки сцены", zap.Error(err))
		return
	}
	a.logger.Debug("[WSAdapter] сцена отправлена",
		zap.Int("objects", len(scene.Objects)), zap.Int("records", len(scene.Records)))

	go a.hub.writeLoop(c)

	stop := make(chan struct{})
	defer close(stop)
	if a.cfg.PingInterval > 0 {
		go a.startPing(writer, stop)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Debug("[WSAdapter] соединение прервано", zap.Error(err))
			}
			break
		}
		if err := a.handleMessage(writer, data); err != nil {
			a.logger.Debug("[WSAdapter] ошибка обработки сообщения", zap.Error(err))
		}
	}

	// Отпущенные клавиши не должны катить шар после ухода клиента
	a.session.SetInput(steering.Input{})
	a.logger.Info("[WSAdapter] клиент отключен", zap.Uint64("client", c.id))
}

// handleMessage обрабатывает одно входящее сообщение
func (a *WSAdapter) handleMessage(writer *SafeWriter, data []byte) error {
	msg, err := ParseMessage(data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case *InputMessage:
		a.session.SetInput(m.Input)
		return nil
	case *PingMessage:
		return writer.WriteJSON(NewPongMessage(m.ClientTime))
	case *PongMessage:
		return nil
	default:
		return fmt.Errorf("unexpected message from client: %T", m)
	}
}

// startPing поддерживает соединение живым
func (a *WSAdapter) startPing(writer *SafeWriter, stop <-chan struct{}) {
	ticker := time.NewTicker(a.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := writer.Ping(); err != nil {
				return
			}
		}
	}
}
