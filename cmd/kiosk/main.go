// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// The kiosk command runs one on-site display: it polls the session
// store, reads the barcode scanner from stdin, and drives the local
// streaming encoder.
package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"riplive/cliparse"
	"riplive/encoder"
	"riplive/kiosk"
)

func main() {
	godotenv.Load()

	cfg, err := cliparse.ParseKioskFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		cancel()
	}()

	// Encoder manager; an empty URL leaves it disabled and the display
	// runs without scene control.
	manager := encoder.New(encoder.Config{
		URL:          cfg.EncoderURL,
		Password:     cfg.EncoderPassword,
		DefaultScene: cfg.SceneAttract,
	})
	manager.OnStateChange(func(old, new encoder.State) {
		slog.Info("encoder state changed", "from", old.String(), "to", new.String())
	})
	defer manager.Disconnect()

	if cfg.EncoderURL != "" {
		if err := manager.Connect(ctx); err != nil {
			// The display keeps running; scene switches fail advisory
			// until the encoder comes back.
			slog.Warn("encoder connection failed", "error", err)
		} else if cfg.StreamServer != "" && cfg.StreamKey != "" {
			if err := manager.ApplyStreamSettings(ctx, cfg.StreamServer, cfg.StreamKey, cfg.StreamServiceType); err != nil {
				slog.Warn("failed to apply stream settings", "error", err)
			}
		}
	}

	store, err := kiosk.NewFileRecoveryStore(cfg.CachePath, cfg.LocationSlug)
	if err != nil {
		slog.Error("failed to open recovery cache", "error", err)
		os.Exit(1)
	}

	display := kiosk.NewDisplay(
		kiosk.NewClient(cfg.ServerURL),
		store,
		manager,
		&kiosk.TerminalRenderer{Out: os.Stdout},
		kiosk.DisplayConfig{
			Slug:             cfg.LocationSlug,
			PollInterval:     cfg.PollInterval,
			CountdownSeconds: cfg.CountdownSeconds,
			LiveSeconds:      cfg.LiveSeconds,
			Scenes: kiosk.Scenes{
				Attract: cfg.SceneAttract,
				Live:    cfg.SceneLive,
				Reveal:  cfg.SceneReveal,
			},
		},
	)

	// The barcode scanner presents as a keyboard: one code per line
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			display.Scan(scanner.Text())
		}
	}()

	slog.Info("Kiosk running", "location", cfg.LocationSlug, "server", cfg.ServerURL)
	if err := display.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("Display stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Kiosk stopped")
}
