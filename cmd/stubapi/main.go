package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jdarling/eventdash/internal/stubapi"
	"github.com/jdarling/eventdash/pkg/logger"
)

func main() {
	addr := flag.String("addr", ":8787", "Listen address for the stub upstream")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Get().Info(ctx, "serving stub upstream", logger.String("addr", *addr))
	if err := stubapi.Run(ctx, &stubapi.Config{Addr: *addr}); err != nil {
		os.Stderr.WriteString("stub upstream failed: " + err.Error() + "\n")
	}
}
