package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/athar-taj/Live-Cogbee/internal/adapters/http"
	"github.com/athar-taj/Live-Cogbee/internal/adapters/kurento"
	wssignal "github.com/athar-taj/Live-Cogbee/internal/adapters/signal"
	"github.com/athar-taj/Live-Cogbee/internal/app"
	"github.com/athar-taj/Live-Cogbee/internal/config"
	"github.com/athar-taj/Live-Cogbee/internal/services"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	registry := app.NewRegistry()
	rooms := app.NewRooms()
	broadcast := &app.Broadcaster{Registry: registry, Rooms: rooms}

	dialer := kurento.Dialer{URL: cfg.Kurento.URL, Timeout: cfg.Kurento.Timeout}
	media := app.NewMediaManager(dialer, rooms, broadcast.Relay)

	relayCtl := &wssignal.Controller{
		Registry: registry, Rooms: rooms, Broadcast: broadcast,
		ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod,
	}
	sfuCtl := &wssignal.Controller{
		Registry: registry, Rooms: rooms, Broadcast: broadcast, Media: media,
		ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod,
	}

	stt := services.NewSpeechToText(cfg.SpeechFlow, nil)
	eval := services.NewAnswerEvaluation(cfg.Gemini, nil)
	faces := services.NewFaceVerification(cfg.FacePP, nil)
	interview := services.NewInterview(stt, eval)

	r := router.SetupRouter(ctx, cfg, router.Controllers{
		Relay:     relayCtl,
		SFU:       sfuCtl,
		Audio:     wssignal.NewAudioController(),
		Interview: &router.InterviewAPI{Interview: interview, Faces: faces},
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Live-Cogbee server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
