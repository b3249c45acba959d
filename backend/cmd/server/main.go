// Сервер игры: физика, накопление объектов на шаре и WebSocket для клиентов.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"x-katamari/backend/internal/app"
	"x-katamari/backend/internal/config"
	"x-katamari/backend/internal/logger"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Log.Info("[Server] настройки загружены",
		zap.String("addr", cfg.Server.Addr),
		zap.String("comotion", string(cfg.CoMotion.Strategy)),
		zap.Int("tps", cfg.Ticker.TargetTPS),
		zap.Bool("audio", cfg.Audio.Enabled))

	a, err := app.New(cfg, logger.Log)
	if err != nil {
		logger.Log.Error("[Server] не удалось собрать сервер", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Log.Error("[Server] сервер завершился с ошибкой", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
