package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/domain/service"
	"x-katamari/backend/internal/core/port/in/session"
	"x-katamari/backend/internal/core/port/out/feedback"
)

const defaultSendBuffer = 64

// client подключенный клиент с собственной очередью отправки
type client struct {
	id     uint64
	writer *SafeWriter
	send   chan []byte
}

// Hub рассылает события всем клиентам. Методы вызываются из игрового цикла,
// поэтому только кладут сообщение в очереди клиентов и никогда не ждут сеть.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	nextID     uint64
	sendBuffer int
	logger     *zap.Logger

	dropped atomic.Uint64
}

var _ feedback.Listener = (*Hub)(nil)

// NewHub создает хаб
func NewHub(sendBuffer int, logger *zap.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		sendBuffer: sendBuffer,
		logger:     logger,
	}
}

func (h *Hub) register(w *SafeWriter) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	c := &client{id: h.nextID, writer: w, send: make(chan []byte, h.sendBuffer)}
	h.clients[c] = struct{}{}
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// writeLoop пишет очередь клиента в сокет до закрытия очереди или ошибки записи
func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		if err := c.writer.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("[Hub] ошибка записи клиенту", zap.Uint64("client", c.id), zap.Error(err))
			h.unregister(c)
			// Дочитываем, чтобы не держать память до закрытия
			for range c.send {
			}
			return
		}
	}
}

// Broadcast сериализует v один раз и кладет во все очереди.
// Клиент с переполненной очередью теряет сообщение.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("[Hub] ошибка сериализации", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			if h.dropped.Add(1)%100 == 1 {
				h.logger.Warn("[Hub] очередь клиента переполнена", zap.Uint64("client", c.id))
			}
		}
	}
}

// Collected реализует feedback.Listener
func (h *Hub) Collected(rec entity.AccretionRecord, ball entity.Ball) {
	h.Broadcast(&AccretedMessage{
		Type:          MessageTypeAccreted,
		Record:        NewRecordView(rec),
		VirtualRadius: ball.VirtualRadius,
		Mass:          ball.Mass,
		HUD:           service.FormatHUD(ball.VirtualRadius),
	})
}

// Rejected реализует feedback.Listener
func (h *Hub) Rejected(id string, ball entity.Ball) {
	h.Broadcast(&RejectedMessage{Type: MessageTypeRejected, ID: id, VirtualRadius: ball.VirtualRadius})
}

// BroadcastState рассылает периодическое состояние
func (h *Hub) BroadcastState(snap session.Snapshot) {
	h.mu.RLock()
	empty := len(h.clients) == 0
	h.mu.RUnlock()
	if empty {
		return
	}
	h.Broadcast(NewStateMessage(snap))
}

// Len количество подключенных клиентов
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped сколько сообщений потеряно из-за переполненных очередей
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
