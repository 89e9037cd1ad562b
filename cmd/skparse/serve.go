package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/xStarless-Skyx/skparse/modules"
	"github.com/xStarless-Skyx/skparse/sio"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveListen string
	serveStdio  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer JSON requests over a WebSocket or stdio",
	Long: `Answer JSON requests over a WebSocket or stdio.

Each request is {"id", "text", "kind", "expect", "eval", "locals"}.
With --stdio, requests are read one per line from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, closer, err := newService(ctx)
		if err != nil {
			return err
		}
		defer closer()

		if serveStdio {
			return sio.NewStdio().Run(ctx, svc)
		}

		listen := cfg.Serve.Listen
		if serveListen != "" {
			listen = serveListen
		}
		mux := http.NewServeMux()
		mux.Handle(cfg.Serve.Path, svc.WebSocket(ctx))
		server := &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdown)
		}()

		logger.Info("listening", zap.String("addr", listen), zap.String("path", cfg.Serve.Path))
		if err = server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "read requests from stdin")
}

// newService wires a parser, modules, and storage into a sio.Service.
// With a modules directory and watching on, the modules are reloaded
// as their manifests change until the context is done.
func newService(ctx context.Context) (*sio.Service, func(), error) {
	p, l, err := newParser(ctx)
	if err != nil {
		return nil, nil, err
	}
	st, err := newStorage()
	if err != nil {
		return nil, nil, err
	}
	if l != nil && cfg.Modules.Watch {
		go watch(ctx, l, cfg.Modules.Dir)
	}

	svc := sio.NewService(p, st, logger.Named("sio"))
	svc.Timeout = cfg.Serve.Timeout.Duration
	closer := func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
	}
	return svc, closer, nil
}

func watch(ctx context.Context, l *modules.Loader, dir string) {
	if err := l.Watch(ctx, dir); err != nil {
		logger.Error("watching modules", zap.String("dir", dir), zap.Error(err))
	}
}
