package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/accretion"
	"x-katamari/backend/internal/core/domain/entity"
)

func record(id string, kind entity.Kind) entity.AccretionRecord {
	return entity.AccretionRecord{
		ID:            id,
		Kind:          kind,
		LocalPosition: mgl64.Vec3{0, 0.5, 0},
		Dimensions:    entity.Dimensions{Width: 0.2, Height: 0.5, Depth: 1},
	}
}

func TestManager_RingBuffer(t *testing.T) {
	tm := NewManager(3, nil)
	ball := entity.Ball{VirtualRadius: 0.6, Mass: 5}

	tm.Collected(record("a", entity.KindBox), ball)
	tm.Collected(record("b", entity.KindBox), ball)
	tm.Rejected("c", ball)
	tm.Collected(record("d", entity.KindGlyph), ball)

	events := tm.Recent()
	if len(events) != 3 {
		t.Fatalf("событий %d, ожидали 3", len(events))
	}
	ids := []string{events[0].EntityID, events[1].EntityID, events[2].EntityID}
	if ids[0] != "b" || ids[1] != "c" || ids[2] != "d" {
		t.Errorf("порядок %v", ids)
	}
	if events[1].Type != EventRejected || events[1].Local != nil {
		t.Errorf("отказ %+v", events[1])
	}
	if v := events[2].Volume; v < 0.0499 || v > 0.0501 {
		t.Errorf("объем буквы %v, ожидали 0.05", v)
	}
}

func TestManager_CountersAndSummary(t *testing.T) {
	tm := NewManager(10, nil)
	now := time.Unix(100, 0)
	tm.now = func() time.Time { return now }

	tm.RecordResult(accretion.Result{Outcome: accretion.OutcomeCollected})
	tm.RecordResult(accretion.Result{Outcome: accretion.OutcomeCollected})
	tm.RecordResult(accretion.Result{Outcome: accretion.OutcomeRejected})
	tm.Rejected("x", entity.Ball{})

	c := tm.Counters()
	if c["collected"] != 2 || c["rejected"] != 1 || c["event_rejected"] != 1 {
		t.Errorf("счетчики %v", c)
	}

	tm.PrintSummary()
	if len(tm.Counters()) != 0 {
		t.Error("сводка должна сбросить счетчики")
	}

	// Повторная сводка раньше интервала ничего не сбрасывает
	tm.RecordResult(accretion.Result{Outcome: accretion.OutcomeDuplicate})
	now = now.Add(time.Second)
	tm.PrintSummary()
	if tm.Counters()["duplicate"] != 1 {
		t.Error("сводка не должна срабатывать чаще интервала")
	}
}

func TestManager_DisabledAndClear(t *testing.T) {
	tm := NewManager(4, nil)
	tm.SetEnabled(false)
	tm.Rejected("x", entity.Ball{})
	tm.RecordResult(accretion.Result{Outcome: accretion.OutcomeCollected})
	if len(tm.Recent()) != 0 || len(tm.Counters()) != 0 {
		t.Error("выключенная телеметрия не должна ничего записывать")
	}

	tm.SetEnabled(true)
	tm.Collected(record("a", entity.KindBox), entity.Ball{})
	tm.Clear()
	if len(tm.Recent()) != 0 {
		t.Error("Clear должен очистить буфер")
	}
}

func TestManager_JSON(t *testing.T) {
	tm := NewManager(4, nil)
	tm.Collected(record("crate", entity.KindBox), entity.Ball{VirtualRadius: 0.5, Mass: 3})

	s, err := tm.JSON()
	if err != nil {
		t.Fatal(err)
	}
	var events []Event
	if err := json.Unmarshal([]byte(s), &events); err != nil {
		t.Fatalf("невалидный JSON: %v", err)
	}
	if len(events) != 1 || events[0].EntityID != "crate" || events[0].EntityKind != entity.KindBox {
		t.Errorf("события %+v", events)
	}
}
