package main // Entry point package

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/config"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/handler"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/repository"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.NewHelper(log.DefaultLogger).Fatalf("config: %v", err)
	}
	logger := config.NewLogger(os.Stderr, "seatbook", cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		log.NewHelper(logger).Error(err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger log.Logger) error {
	h := log.NewHelper(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// unblock the menu's pending read on interrupt
	go func() {
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	ledger, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	events, err := service.NewEventPublisher(cfg.Events, logger)
	if err != nil {
		_ = ledger.Close()
		return fmt.Errorf("events: %w", err)
	}

	svc := service.NewReservationService(repository.NewSeatTable(cfg.SeatFile), ledger, nil, events, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			h.Warnf("close: %v", err)
		}
	}()
	if err := svc.Open(ctx); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	h.Infof("started (env=%s, ledger=%s, events=%s)", cfg.Env, cfg.Ledger.Backend, cfg.Events.Backend)

	menu := handler.NewMenu(svc, os.Stdin, os.Stdout, logger)
	if err := menu.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("menu: %w", err)
	}
	return nil
}
