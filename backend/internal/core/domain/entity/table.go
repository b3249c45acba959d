package entity

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEntity    = errors.New("unknown entity")
	ErrDuplicateEntity  = errors.New("duplicate entity id")
	ErrAlreadyCollected = errors.New("entity already collected")
)

// Table центральная таблица собираемых объектов: арена плюс индексы по ID и по телу
type Table struct {
	arena  []*Collectible
	byID   map[string]int
	byBody map[BodyHandle]int
}

// NewTable создает пустую таблицу
func NewTable() *Table {
	return &Table{
		byID:   make(map[string]int),
		byBody: make(map[BodyHandle]int),
	}
}

// Add регистрирует объект и его тело
func (t *Table) Add(meta Metadata, body BodyHandle) (*Collectible, error) {
	if _, exists := t.byID[meta.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, meta.ID)
	}

	c := &Collectible{Metadata: meta, Body: body, State: Uncollected}
	idx := len(t.arena)
	t.arena = append(t.arena, c)
	t.byID[meta.ID] = idx
	if body != NoBody {
		t.byBody[body] = idx
	}
	return c, nil
}

// ByBody ищет объект по физическому телу
func (t *Table) ByBody(body BodyHandle) (*Collectible, bool) {
	idx, ok := t.byBody[body]
	if !ok {
		return nil, false
	}
	return t.arena[idx], true
}

// ByID ищет объект по идентификатору
func (t *Table) ByID(id string) (*Collectible, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.arena[idx], true
}

// MarkCollected переводит объект в состояние Collected. Переход однократный.
func (t *Table) MarkCollected(id string) error {
	c, ok := t.ByID(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, id)
	}
	if c.State == Collected {
		return fmt.Errorf("%w: %s", ErrAlreadyCollected, id)
	}
	c.State = Collected
	return nil
}

// Len количество объектов
func (t *Table) Len() int {
	return len(t.arena)
}

// Uncollected возвращает копии еще не собранных объектов в порядке добавления
func (t *Table) Uncollected() []Collectible {
	result := make([]Collectible, 0, len(t.arena))
	for _, c := range t.arena {
		if c.State == Uncollected {
			result = append(result, *c)
		}
	}
	return result
}
