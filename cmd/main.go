package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sixtyoneeightyjake/mojocodefinal/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		a.Log.Error("failed to start app", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(a.Cfg.Addr()) }()

	select {
	case err := <-errCh:
		if err != nil {
			a.Log.Error("server exited", "error", err)
		}
	case <-ctx.Done():
		a.Log.Info("shutting down")
	}
}
