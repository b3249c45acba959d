// Package viewer терминальный вид сверху на игру: модель сцены, собранная
// из сообщений сервера, отрисовка в tcell и удержание клавиш.
package viewer

import (
	"fmt"
	"sort"

	"x-katamari/backend/internal/adapter/in/ws"
)

// Model то, что клиент знает о сцене
type Model struct {
	Objects   map[string]ws.ObjectView
	Ball      ws.BallView
	HUD       string
	Tick      uint64
	Collected int
	Remaining int
	LastEvent string

	records map[string]bool
}

// NewModel пустая модель
func NewModel() *Model {
	return &Model{
		Objects: make(map[string]ws.ObjectView),
		records: make(map[string]bool),
	}
}

// Apply обновляет модель сообщением сервера. Неизвестные сообщения игнорируются.
func (m *Model) Apply(msg interface{}) {
	switch v := msg.(type) {
	case *ws.SceneMessage:
		m.Objects = make(map[string]ws.ObjectView, len(v.Objects))
		for _, o := range v.Objects {
			m.Objects[o.ID] = o
		}
		for _, r := range v.Records {
			m.records[r.ID] = true
			delete(m.Objects, r.ID)
		}
		m.applyState(&v.State)
	case *ws.StateMessage:
		m.applyState(v)
	case *ws.AccretedMessage:
		// Подписка на события раньше снимка сцены дает дубликаты
		if m.records[v.Record.ID] {
			return
		}
		m.records[v.Record.ID] = true
		delete(m.Objects, v.Record.ID)
		m.Collected = len(m.records)
		m.HUD = v.HUD
		m.Ball.VirtualRadius = v.VirtualRadius
		m.LastEvent = fmt.Sprintf("+ %s", v.Record.ID)
	case *ws.RejectedMessage:
		m.LastEvent = fmt.Sprintf("x %s слишком велик", v.ID)
	case *ws.InfoMessage:
		m.LastEvent = v.Message
	}
}

func (m *Model) applyState(s *ws.StateMessage) {
	if s.Tick < m.Tick {
		return
	}
	m.Tick = s.Tick
	m.Ball = s.Ball
	m.HUD = s.HUD
	m.Collected = s.Collected
	m.Remaining = s.Remaining
}

// Records сколько записей о поглощении видел клиент
func (m *Model) Records() int {
	return len(m.records)
}

// sortedObjects объекты в стабильном порядке, дальние от земли рисуются позже
func (m *Model) sortedObjects() []ws.ObjectView {
	out := make([]ws.ObjectView, 0, len(m.Objects))
	for _, o := range m.Objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position.Y != out[j].Position.Y {
			return out[i].Position.Y < out[j].Position.Y
		}
		return out[i].ID < out[j].ID
	})
	return out
}
