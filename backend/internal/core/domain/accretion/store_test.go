package accretion

import (
	"errors"
	"testing"

	"x-katamari/backend/internal/core/domain/entity"
)

func TestStore_InsertAtMostOnce(t *testing.T) {
	s := NewStore()

	if err := s.Insert(entity.AccretionRecord{ID: "a"}); err != nil {
		t.Fatalf("первая вставка: %v", err)
	}
	err := s.Insert(entity.AccretionRecord{ID: "a"})
	if !errors.Is(err, entity.ErrAlreadyCollected) {
		t.Fatalf("повторная вставка: ожидали ErrAlreadyCollected, получили %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("ожидали одну запись, получили %d", s.Len())
	}
	if err := s.Insert(entity.AccretionRecord{}); err == nil {
		t.Error("пустой ID должен отклоняться")
	}
}

func TestStore_InsertionOrder(t *testing.T) {
	s := NewStore()
	ids := []string{"z", "a", "m", "b"}
	for _, id := range ids {
		if err := s.Insert(entity.AccretionRecord{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	s.Each(func(rec entity.AccretionRecord) { seen = append(seen, rec.ID) })
	for i := range ids {
		if seen[i] != ids[i] {
			t.Fatalf("порядок нарушен: %v", seen)
		}
	}

	recs := s.Records()
	recs[0].ID = "changed"
	if got, _ := s.Get("z"); got.ID != "z" {
		t.Error("Records должен возвращать копию")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get нашел несуществующую запись")
	}
}
