package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeWriter обеспечивает потокобезопасную запись в WebSocket
type SafeWriter struct {
	conn         *websocket.Conn
	mutex        sync.Mutex
	writeTimeout time.Duration
}

// NewSafeWriter создает новый экземпляр SafeWriter. writeTimeout 0 отключает дедлайн.
func NewSafeWriter(conn *websocket.Conn, writeTimeout time.Duration) *SafeWriter {
	return &SafeWriter{conn: conn, writeTimeout: writeTimeout}
}

func (w *SafeWriter) deadline() {
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
}

// WriteJSON потокобезопасно отправляет JSON данные
func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.deadline()
	return w.conn.WriteJSON(v)
}

// WriteMessage потокобезопасно отправляет готовое сообщение
func (w *SafeWriter) WriteMessage(messageType int, data []byte) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.deadline()
	return w.conn.WriteMessage(messageType, data)
}

// Ping отправляет управляющий ping-кадр
func (w *SafeWriter) Ping() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
}

// Close закрывает соединение
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
