package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/config"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/queue"
)

// booking-audit consumes booking events from RabbitMQ and appends them to
// the audit log until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.NewHelper(log.DefaultLogger).Fatalf("config: %v", err)
	}
	logger := config.NewLogger(os.Stderr, "booking-audit", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = queue.StartBookingConsumer(ctx, cfg.Events.RabbitMQURL, cfg.Events.Queue, cfg.Events.AuditLogDir, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.NewHelper(logger).Errorf("consumer stopped: %v", err)
		os.Exit(1)
	}
}
