package accretion

import (
	"fmt"

	"x-katamari/backend/internal/core/domain/entity"
)

// Store хранилище записей о поглощении. Порядок перечисления совпадает с порядком вставки.
type Store struct {
	byID  map[string]int
	order []entity.AccretionRecord
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Has true, если объект уже поглощен
func (s *Store) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Insert добавляет запись; повторная вставка того же ID запрещена
func (s *Store) Insert(rec entity.AccretionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", entity.ErrUnknownEntity)
	}
	if s.Has(rec.ID) {
		return fmt.Errorf("%w: %s", entity.ErrAlreadyCollected, rec.ID)
	}
	s.byID[rec.ID] = len(s.order)
	s.order = append(s.order, rec)
	return nil
}

// Get возвращает запись по ID
func (s *Store) Get(id string) (entity.AccretionRecord, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return entity.AccretionRecord{}, false
	}
	return s.order[idx], true
}

// Each обходит записи в порядке вставки
func (s *Store) Each(fn func(rec entity.AccretionRecord)) {
	for _, rec := range s.order {
		fn(rec)
	}
}

// Records копия всех записей
func (s *Store) Records() []entity.AccretionRecord {
	out := make([]entity.AccretionRecord, len(s.order))
	copy(out, s.order)
	return out
}

// Len количество записей
func (s *Store) Len() int {
	return len(s.order)
}
