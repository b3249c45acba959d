package viewer

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"x-katamari/backend/internal/steering"
)

// HoldTime сколько клавиша считается нажатой после последнего события.
// Терминал не сообщает об отпускании, только повторяет нажатие.
const HoldTime = 250 * time.Millisecond

// Keys переводит нажатия терминала в удерживаемые клавиши
type Keys struct {
	hold    time.Duration
	forward time.Time
	back    time.Time
	left    time.Time
	right   time.Time
}

// NewKeys создает удержание с заданным временем (0 - HoldTime)
func NewKeys(hold time.Duration) *Keys {
	if hold <= 0 {
		hold = HoldTime
	}
	return &Keys{hold: hold}
}

// Handle обрабатывает событие клавиатуры. false, если клавиша не управляющая.
func (k *Keys) Handle(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyUp:
		k.forward = now
	case tcell.KeyDown:
		k.back = now
	case tcell.KeyLeft:
		k.left = now
	case tcell.KeyRight:
		k.right = now
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w', 'W':
			k.forward = now
		case 's', 'S':
			k.back = now
		case 'a', 'A':
			k.left = now
		case 'd', 'D':
			k.right = now
		case ' ':
			k.Release()
		default:
			return false
		}
	default:
		return false
	}
	return true
}

// Release отпускает все клавиши
func (k *Keys) Release() {
	*k = Keys{hold: k.hold}
}

// Input состояние клавиш на момент now
func (k *Keys) Input(now time.Time) steering.Input {
	held := func(t time.Time) bool {
		return !t.IsZero() && now.Sub(t) < k.hold
	}
	return steering.Input{
		Forward: held(k.forward),
		Back:    held(k.back),
		Left:    held(k.left),
		Right:   held(k.right),
	}
}
