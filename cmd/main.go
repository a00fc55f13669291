package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/gommon/log"

	"buddy/pkg/catalog"
	"buddy/pkg/config"
	"buddy/pkg/schema"
	"buddy/pkg/server"
	"buddy/pkg/utils"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	charmlog.SetLevel(cfg.Level())

	srv := server.NewServer(ctx, cfg)
	srv.Echo.Logger.SetLevel(log.INFO)
	if cfg.Level() <= charmlog.DebugLevel {
		srv.Echo.Logger.SetLevel(log.DEBUG)
	}

	log.Debugf("Config: %s", utils.PrettyJSON(cfg))

	if utils.Exists(cfg.EventLogPath) {
		entries, err := utils.Load[[]schema.EventLogEntry](cfg.EventLogPath)
		if err != nil {
			log.Warnf("Failed to load %s: %v", cfg.EventLogPath, err)
		} else {
			srv.Events.Restore(entries)
			log.Infof("Restored %d event log entries", len(entries))
		}
	}

	go srv.Timer.Run(ctx)

	character, _ := catalog.Character(cfg.Character)
	go func() {
		if err := srv.Loader.Select(ctx, character); err != nil {
			log.Errorf("Failed to load %s: %v", character.Name, err)
		}
	}()

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		done()
	}
	<-finishedShutDown
}
