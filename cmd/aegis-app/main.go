package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/samijaber1/aegis-canary/internal/api"
	"github.com/samijaber1/aegis-canary/internal/config"
	"github.com/samijaber1/aegis-canary/internal/logging"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	var (
		addr      = flag.String("addr", ":"+port, "address for the web server")
		logFormat = flag.String("log-format", "text", "log format (text|json)")
		logLevel  = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log, err := logging.New(config.LoggingConfig{Format: *logFormat, Level: *logLevel}, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := serve(*addr, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func serve(addr string, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(addr, log)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
