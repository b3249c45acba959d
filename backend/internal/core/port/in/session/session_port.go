package session

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/steering"
)

// BallState состояние шара, видимое клиентам
type BallState struct {
	Position      mgl64.Vec3 `json:"position"`
	Orientation   mgl64.Quat `json:"-"`
	Velocity      mgl64.Vec3 `json:"velocity"`
	CoreRadius    float64    `json:"core_radius"`
	VirtualRadius float64    `json:"virtual_radius"`
	Mass          float64    `json:"mass"`
	Heading       float64    `json:"heading"`
}

// Snapshot неизменяемый снимок сессии на конец тика
type Snapshot struct {
	Tick      uint64          `json:"tick"`
	Ball      BallState       `json:"ball"`
	Camera    steering.Camera `json:"camera"`
	HUD       string          `json:"hud"`
	Collected int             `json:"collected"`
	Remaining int             `json:"remaining"`
}

// SceneView то, что нужно новому клиенту, чтобы нарисовать сцену с нуля
type SceneView struct {
	Snapshot    Snapshot
	Uncollected []UncollectedView
	Records     []entity.AccretionRecord
}

// UncollectedView несобранный объект с его текущей позой
type UncollectedView struct {
	Metadata entity.Metadata
	Pose     entity.Pose
}

// SessionPort определяет интерфейс игровой сессии для внешних адаптеров
type SessionPort interface {
	// SetInput запоминает состояние клавиш, применяется на следующем тике
	SetInput(in steering.Input)

	// Snapshot возвращает снимок на конец последнего тика
	Snapshot() Snapshot

	// Scene возвращает полную сцену для нового клиента
	Scene() SceneView
}
