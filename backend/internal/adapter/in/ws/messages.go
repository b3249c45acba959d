package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/in/session"
	"x-katamari/backend/internal/steering"
)

// Типы сообщений
const (
	MessageTypeInfo     = "info"
	MessageTypeScene    = "scene"    // полная сцена новому клиенту
	MessageTypeState    = "state"    // периодическое состояние шара
	MessageTypeAccreted = "accreted" // объект прилип к шару
	MessageTypeRejected = "rejected" // объект слишком велик
	MessageTypeInput    = "input"    // клавиши от клиента
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

// ErrUnknownMessage неизвестный тип входящего сообщения
var ErrUnknownMessage = errors.New("unknown message type")

// Vec3 вектор в формате клиента
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat кватернион в формате клиента
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// safeValue заменяет NaN и бесконечности на defaultValue
func safeValue(value, defaultValue float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return defaultValue
	}
	return value
}

// NewVec3 переводит вектор в формат клиента
func NewVec3(v mgl64.Vec3) Vec3 {
	return Vec3{X: safeValue(v[0], 0), Y: safeValue(v[1], 0), Z: safeValue(v[2], 0)}
}

// NewQuat переводит кватернион в формат клиента
func NewQuat(q mgl64.Quat) Quat {
	if q.Len() == 0 {
		q = mgl64.QuatIdent()
	}
	return Quat{
		X: safeValue(q.V[0], 0),
		Y: safeValue(q.V[1], 0),
		Z: safeValue(q.V[2], 0),
		W: safeValue(q.W, 1),
	}
}

// Vec обратно в mgl64
func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

// Quat обратно в mgl64
func (q Quat) Quat() mgl64.Quat { return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}} }

// Size размеры объекта
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

func newSize(d entity.Dimensions) Size {
	return Size{Width: d.Width, Height: d.Height, Depth: d.Depth}
}

// ObjectView несобранный объект сцены
type ObjectView struct {
	ID       string              `json:"id"`
	Kind     entity.Kind         `json:"kind"`
	Size     Size                `json:"size"`
	Position Vec3                `json:"position"`
	Rotation Quat                `json:"rotation"`
	Box      *entity.BoxParams   `json:"box,omitempty"`
	Glyph    *entity.GlyphParams `json:"glyph,omitempty"`
	Model    *ModelView          `json:"model,omitempty"`
}

// ModelView параметры модели
type ModelView struct {
	Path  string `json:"path"`
	Scale Vec3   `json:"scale"`
}

func newModelView(m *entity.ModelParams) *ModelView {
	if m == nil {
		return nil
	}
	return &ModelView{Path: m.Path, Scale: NewVec3(m.Scale)}
}

// NewObjectView представление несобранного объекта
func NewObjectView(v session.UncollectedView) ObjectView {
	return ObjectView{
		ID:       v.Metadata.ID,
		Kind:     v.Metadata.Kind,
		Size:     newSize(v.Metadata.Dimensions),
		Position: NewVec3(v.Pose.Position),
		Rotation: NewQuat(v.Pose.Orientation),
		Box:      v.Metadata.Box,
		Glyph:    v.Metadata.Glyph,
		Model:    newModelView(v.Metadata.Model),
	}
}

// RecordView поглощенный объект в системе шара. Мировая поза
// = позиция шара + поворот шара·Local, поворот шара·LocalRotation·InitialRotation.
type RecordView struct {
	ID              string              `json:"id"`
	Kind            entity.Kind         `json:"kind"`
	Size            Size                `json:"size"`
	Local           Vec3                `json:"local"`
	LocalRotation   Quat                `json:"local_rotation"`
	InitialRotation Quat                `json:"initial_rotation"`
	Binding         entity.BindingMode  `json:"binding"`
	Box             *entity.BoxParams   `json:"box,omitempty"`
	Glyph           *entity.GlyphParams `json:"glyph,omitempty"`
	Model           *ModelView          `json:"model,omitempty"`
}

// NewRecordView представление записи о поглощении
func NewRecordView(r entity.AccretionRecord) RecordView {
	return RecordView{
		ID:              r.ID,
		Kind:            r.Kind,
		Size:            newSize(r.Dimensions),
		Local:           NewVec3(r.LocalPosition),
		LocalRotation:   NewQuat(r.LocalOrientation),
		InitialRotation: NewQuat(r.InitialOrientation),
		Binding:         r.Binding.Mode,
		Box:             r.Box,
		Glyph:           r.Glyph,
		Model:           newModelView(r.Model),
	}
}

// BallView состояние шара
type BallView struct {
	Position      Vec3    `json:"position"`
	Rotation      Quat    `json:"rotation"`
	Velocity      Vec3    `json:"velocity"`
	CoreRadius    float64 `json:"core_radius"`
	VirtualRadius float64 `json:"virtual_radius"`
	Mass          float64 `json:"mass"`
	Heading       float64 `json:"heading"`
}

// CameraView камера
type CameraView struct {
	Position Vec3 `json:"position"`
	Target   Vec3 `json:"target"`
}

// StateMessage периодическое состояние
type StateMessage struct {
	Type       string     `json:"type"`
	Tick       uint64     `json:"tick"`
	Ball       BallView   `json:"ball"`
	Camera     CameraView `json:"camera"`
	HUD        string     `json:"hud"`
	Collected  int        `json:"collected"`
	Remaining  int        `json:"remaining"`
	ServerTime int64      `json:"server_time"`
}

// NewStateMessage сообщение состояния по снимку сессии
func NewStateMessage(s session.Snapshot) *StateMessage {
	return &StateMessage{
		Type: MessageTypeState,
		Tick: s.Tick,
		Ball: BallView{
			Position:      NewVec3(s.Ball.Position),
			Rotation:      NewQuat(s.Ball.Orientation),
			Velocity:      NewVec3(s.Ball.Velocity),
			CoreRadius:    s.Ball.CoreRadius,
			VirtualRadius: s.Ball.VirtualRadius,
			Mass:          s.Ball.Mass,
			Heading:       s.Ball.Heading,
		},
		Camera:     CameraView{Position: NewVec3(s.Camera.Position), Target: NewVec3(s.Camera.Target)},
		HUD:        s.HUD,
		Collected:  s.Collected,
		Remaining:  s.Remaining,
		ServerTime: GetCurrentServerTime(),
	}
}

// SceneMessage полная сцена
type SceneMessage struct {
	Type       string       `json:"type"`
	State      StateMessage `json:"state"`
	Objects    []ObjectView `json:"objects"`
	Records    []RecordView `json:"records"`
	ServerTime int64        `json:"server_time"`
}

// NewSceneMessage сообщение со всей сценой
func NewSceneMessage(v session.SceneView) *SceneMessage {
	msg := &SceneMessage{
		Type:       MessageTypeScene,
		State:      *NewStateMessage(v.Snapshot),
		Objects:    make([]ObjectView, 0, len(v.Uncollected)),
		Records:    make([]RecordView, 0, len(v.Records)),
		ServerTime: GetCurrentServerTime(),
	}
	for _, u := range v.Uncollected {
		msg.Objects = append(msg.Objects, NewObjectView(u))
	}
	for _, r := range v.Records {
		msg.Records = append(msg.Records, NewRecordView(r))
	}
	return msg
}

// AccretedMessage объект прилип к шару
type AccretedMessage struct {
	Type          string     `json:"type"`
	Record        RecordView `json:"record"`
	VirtualRadius float64    `json:"virtual_radius"`
	Mass          float64    `json:"mass"`
	HUD           string     `json:"hud"`
}

// RejectedMessage объект оказался слишком большим
type RejectedMessage struct {
	Type          string  `json:"type"`
	ID            string  `json:"id"`
	VirtualRadius float64 `json:"virtual_radius"`
}

// InputMessage клавиши клиента
type InputMessage struct {
	Type string `json:"type"`
	steering.Input
}

// NewInputMessage сообщение с клавишами
func NewInputMessage(in steering.Input) *InputMessage {
	return &InputMessage{Type: MessageTypeInput, Input: in}
}

// PingMessage пинг клиента
type PingMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
}

// PongMessage ответ на пинг
type PongMessage struct {
	Type       string  `json:"type"`
	ClientTime float64 `json:"client_time"`
	ServerTime int64   `json:"server_time"`
}

// NewPongMessage ответ на пинг с временем сервера в миллисекундах
func NewPongMessage(clientTime float64) *PongMessage {
	return &PongMessage{Type: MessageTypePong, ClientTime: clientTime, ServerTime: GetCurrentServerTime()}
}

// InfoMessage информационное сообщение
type InfoMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewInfoMessage создает информационное сообщение
func NewInfoMessage(message string) *InfoMessage {
	return &InfoMessage{Type: MessageTypeInfo, Message: message}
}

// GetCurrentServerTime время сервера в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixMilli()
}

// GetMessageType возвращает тип сообщения
func GetMessageType(data []byte) (string, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return "", err
	}
	return base.Type, nil
}

// ParseMessage разбирает сообщение в соответствующий тип
func ParseMessage(data []byte) (interface{}, error) {
	messageType, err := GetMessageType(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	var msg interface{}
	switch messageType {
	case MessageTypeInput:
		msg = &InputMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	case MessageTypePong:
		msg = &PongMessage{}
	case MessageTypeInfo:
		msg = &InfoMessage{}
	case MessageTypeState:
		msg = &StateMessage{}
	case MessageTypeScene:
		msg = &SceneMessage{}
	case MessageTypeAccreted:
		msg = &AccretedMessage{}
	case MessageTypeRejected:
		msg = &RejectedMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, messageType)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("error parsing %s message: %w", messageType, err)
	}
	return msg, nil
}
