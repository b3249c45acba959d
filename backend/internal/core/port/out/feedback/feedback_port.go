package feedback

import "x-katamari/backend/internal/core/domain/entity"

// Listener получает события игрового процесса накопления (звук, телеметрия, клиенты)
type Listener interface {
	// Collected вызывается после успешного поглощения объекта
	Collected(rec entity.AccretionRecord, ball entity.Ball)

	// Rejected вызывается, когда объект слишком велик для шара
	Rejected(id string, ball entity.Ball)
}

// Multi рассылает события нескольким слушателям по порядку
type Multi []Listener

// Collected рассылает событие поглощения
func (m Multi) Collected(rec entity.AccretionRecord, ball entity.Ball) {
	for _, l := range m {
		if l != nil {
			l.Collected(rec, ball)
		}
	}
}

// Rejected рассылает событие отказа
func (m Multi) Rejected(id string, ball entity.Ball) {
	for _, l := range m {
		if l != nil {
			l.Rejected(id, ball)
		}
	}
}

// Nop слушатель, игнорирующий события
type Nop struct{}

func (Nop) Collected(entity.AccretionRecord, entity.Ball) {}
func (Nop) Rejected(string, entity.Ball)                  {}
