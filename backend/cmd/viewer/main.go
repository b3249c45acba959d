// Терминальный клиент: вид сверху на поле, управление стрелками или WASD.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"x-katamari/backend/internal/adapter/in/ws"
	"x-katamari/backend/internal/logger"
	"x-katamari/backend/internal/steering"
	"x-katamari/backend/internal/viewer"
)

const frameInterval = 33 * time.Millisecond

type client struct {
	conn     *websocket.Conn
	screen   tcell.Screen
	model    *viewer.Model
	renderer *viewer.Renderer
	keys     *viewer.Keys
	log      *zap.Logger

	lastInput steering.Input
}

func (c *client) send(in steering.Input) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteJSON(ws.NewInputMessage(in))
}

func (c *client) run() error {
	messages := make(chan interface{}, 64)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			msg, err := ws.ParseMessage(data)
			if err != nil {
				c.log.Warn("[Viewer] ошибка разбора сообщения", zap.Error(err))
				continue
			}
			messages <- msg
		}
	}()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-readErr:
			return fmt.Errorf("соединение потеряно: %w", err)

		case msg := <-messages:
			c.model.Apply(msg)

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
					return nil
				}
				c.keys.Handle(ev, time.Now())
			case *tcell.EventResize:
				c.screen.Sync()
			}

		case <-ticker.C:
			in := c.keys.Input(time.Now())
			if in != c.lastInput {
				if err := c.send(in); err != nil {
					return fmt.Errorf("отправка ввода: %w", err)
				}
				c.lastInput = in
			}
			c.renderer.Draw(c.model)
		}
	}
}

func main() {
	var (
		serverURL = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		scale     = flag.Float64("scale", 2, "Столбцов на метр")
		logFile   = flag.String("log-file", "viewer.log", "Файл логов (экран занят отрисовкой)")
	)
	flag.Parse()

	// В консоль писать нельзя, tcell владеет терминалом
	if err := logger.InitWithFileConfig("info", logger.DefaultFileConfig(*logFile), false); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("Viewer")

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "не удалось подключиться к %s: %v\n", *serverURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	c := &client{
		conn:     conn,
		screen:   screen,
		model:    viewer.NewModel(),
		renderer: viewer.NewRenderer(screen, viewer.Projection{CellsPerMeter: *scale, Aspect: 2}),
		keys:     viewer.NewKeys(viewer.HoldTime),
		log:      log,
	}
	log.Info("[Viewer] подключен", zap.String("url", *serverURL))

	runErr := c.run()
	_ = c.send(steering.Input{})
	screen.Fini()

	if runErr != nil {
		log.Error("[Viewer] завершение с ошибкой", zap.Error(runErr))
		fmt.Fprintln(os.Stderr, runErr)
		logger.Sync()
		os.Exit(1)
	}
	log.Info("[Viewer] завершение", zap.Int("collected", c.model.Records()))
}
