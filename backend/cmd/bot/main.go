// Бот для нагрузочной проверки: подключается к серверу, катает шар по
// выбранному узору и считает поглощенные объекты.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-katamari/backend/internal/adapter/in/ws"
	"x-katamari/backend/internal/logger"
	"x-katamari/backend/internal/steering"
)

// Bot подключение к серверу и узор движения
type Bot struct {
	ID          string
	ServerURL   string
	Pattern     string
	Duration    time.Duration
	CommandRate time.Duration

	conn    *websocket.Conn
	writeMu sync.Mutex
	log     *zap.Logger
	start   time.Time
	step    int

	mu    sync.Mutex
	stats BotStats
	seen  map[string]bool
}

// BotStats статистика работы бота
type BotStats struct {
	CommandsSent int
	States       int
	Accreted     int
	Rejected     int
	Errors       int
	Radius       float64
	HUD          string
}

// NewBot создает бота
func NewBot(id, serverURL, pattern string, duration, commandRate time.Duration, log *zap.Logger) *Bot {
	return &Bot{
		ID:          id,
		ServerURL:   serverURL,
		Pattern:     pattern,
		Duration:    duration,
		CommandRate: commandRate,
		log:         log.With(zap.String("bot", id)),
		seen:        make(map[string]bool),
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("неверный URL: %w", err)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}
	b.conn = conn
	b.start = time.Now()

	b.log.Info("[Bot] подключен", zap.String("url", u.String()))
	return nil
}

// Disconnect отпускает клавиши и закрывает соединение
func (b *Bot) Disconnect() {
	if b.conn == nil {
		return
	}
	_ = b.send(ws.NewInputMessage(steering.Input{}))
	b.writeMu.Lock()
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()
	_ = b.conn.Close()
	b.log.Info("[Bot] отключен")
}

func (b *Bot) send(v interface{}) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return b.conn.WriteJSON(v)
}

// nextInput клавиши для следующего шага узора
func (b *Bot) nextInput() steering.Input {
	b.step++
	elapsed := time.Since(b.start)

	switch b.Pattern {
	case "circle":
		return steering.Input{Forward: true, Right: true}
	case "linear":
		// Каждые 4 секунды меняем направление
		if int(elapsed.Seconds()/4)%2 == 0 {
			return steering.Input{Forward: true}
		}
		return steering.Input{Back: true}
	case "spiral":
		// Поворачиваем все реже, радиус витка растет
		period := 2 + b.step/20
		return steering.Input{Forward: true, Right: b.step%period == 0}
	default: // "random"
		return steering.Input{
			Forward: rand.Float64() < 0.8,
			Left:    rand.Float64() < 0.2,
			Right:   rand.Float64() < 0.2,
		}
	}
}

// handleMessage разбирает входящее сообщение сервера
func (b *Bot) handleMessage(data []byte) {
	msg, err := ws.ParseMessage(data)
	if err != nil {
		b.log.Warn("[Bot] ошибка разбора сообщения", zap.Error(err))
		b.countError()
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch m := msg.(type) {
	case *ws.InfoMessage:
		b.log.Info("[Bot] информация", zap.String("message", m.Message))
	case *ws.SceneMessage:
		for _, rec := range m.Records {
			b.seen[rec.ID] = true
		}
		b.stats.Radius = m.State.Ball.VirtualRadius
		b.log.Info("[Bot] получена сцена",
			zap.Int("objects", len(m.Objects)),
			zap.Int("records", len(m.Records)))
	case *ws.StateMessage:
		b.stats.States++
		b.stats.Radius = m.Ball.VirtualRadius
		b.stats.HUD = m.HUD
	case *ws.AccretedMessage:
		// Событие может прийти и в сцене, и отдельно
		if b.seen[m.Record.ID] {
			return
		}
		b.seen[m.Record.ID] = true
		b.stats.Accreted++
		b.stats.Radius = m.VirtualRadius
		b.stats.HUD = m.HUD
		b.log.Info("[Bot] объект поглощен",
			zap.String("entity", m.Record.ID),
			zap.String("kind", string(m.Record.Kind)),
			zap.String("hud", m.HUD))
	case *ws.RejectedMessage:
		b.stats.Rejected++
		b.log.Debug("[Bot] объект слишком велик", zap.String("entity", m.ID))
	case *ws.PongMessage:
		b.log.Debug("[Bot] pong", zap.Int64("rtt_ms", ws.GetCurrentServerTime()-int64(m.ClientTime)))
	}
}

func (b *Bot) countError() {
	b.mu.Lock()
	b.stats.Errors++
	b.mu.Unlock()
}

// Run катает шар до истечения Duration или закрытия stop
func (b *Bot) Run(stop <-chan struct{}) error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, data, err := b.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					b.log.Debug("[Bot] чтение завершено", zap.Error(err))
				}
				return
			}
			b.handleMessage(data)
		}
	}()

	commandTicker := time.NewTicker(b.CommandRate)
	defer commandTicker.Stop()
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()
	deadline := time.After(b.Duration)

	for {
		select {
		case <-stop:
			return nil
		case <-deadline:
			b.log.Info("[Bot] время вышло")
			return nil
		case <-readDone:
			return fmt.Errorf("сервер закрыл соединение")
		case <-pingTicker.C:
			ping := &ws.PingMessage{Type: ws.MessageTypePing, ClientTime: float64(ws.GetCurrentServerTime())}
			if err := b.send(ping); err != nil {
				b.countError()
			}
		case <-commandTicker.C:
			if err := b.send(ws.NewInputMessage(b.nextInput())); err != nil {
				b.log.Warn("[Bot] ошибка отправки ввода", zap.Error(err))
				b.countError()
				continue
			}
			b.mu.Lock()
			b.stats.CommandsSent++
			b.mu.Unlock()
		}
	}
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.log.Info("[Bot] статистика",
		zap.Duration("uptime", time.Since(b.start)),
		zap.Int("commands", b.stats.CommandsSent),
		zap.Int("states", b.stats.States),
		zap.Int("accreted", b.stats.Accreted),
		zap.Int("rejected", b.stats.Rejected),
		zap.Int("errors", b.stats.Errors),
		zap.Float64("radius", b.stats.Radius),
		zap.String("hud", b.stats.HUD))
}

func main() {
	var (
		serverURL   = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		botID       = flag.String("id", "bot1", "ID бота")
		pattern     = flag.String("pattern", "spiral", "Узор движения (random, circle, linear, spiral)")
		duration    = flag.Duration("duration", 60*time.Second, "Длительность работы бота")
		commandRate = flag.Duration("rate", 100*time.Millisecond, "Частота отправки ввода")
		logLevel    = flag.String("log-level", "info", "Уровень логирования")
	)
	flag.Parse()

	if err := logger.Init(*logLevel, ""); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	bot := NewBot(*botID, *serverURL, *pattern, *duration, *commandRate, logger.Named("Bot"))

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		close(stop)
	}()

	if err := bot.Run(stop); err != nil {
		logger.Log.Error("[Bot] ошибка", zap.Error(err))
		bot.PrintStats()
		logger.Sync()
		os.Exit(1)
	}
	bot.PrintStats()
}
