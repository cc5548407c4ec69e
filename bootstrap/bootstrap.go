package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"

	"github.com/fulldump/overlaydb/api"
	"github.com/fulldump/overlaydb/configuration"
	"github.com/fulldump/overlaydb/database"
	"github.com/fulldump/overlaydb/logging"
	"github.com/fulldump/overlaydb/service"
)

var VERSION = "dev"

// Bootstrap wires database, service and http api. start blocks until stop is
// called or the process receives SIGTERM or SIGINT.
func Bootstrap(c *configuration.Configuration) (start, stop func(), err error) {

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger, closeLogger := logging.SetupLogger(level, c.SeqUrl)
	slog.SetDefault(logger)

	db := database.NewDatabase(&database.Config{
		Dir:    c.Dir,
		Logger: logger,
	})

	b := api.Build(service.NewService(db, logger), VERSION)
	b.WithInterceptors(
		api.AccessLog(logger),
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
		api.PrettyErrorInterceptor,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		closeLogger()
		return nil, nil, fmt.Errorf("listen: %w", err)
	}
	logger.Info("listening", "addr", c.HttpAddr, "version", VERSION)

	stopOnce := &sync.Once{}
	stop = func() {
		stopOnce.Do(func() {
			err := db.Stop()
			if err != nil {
				logger.Error("stop database", "error", err)
			}
			s.Shutdown(context.Background())
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			logger.Info("signal received", "signal", sig.String())
			stop()
		}
	}()

	start = func() {

		defer closeLogger()

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				logger.Error("database", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				logger.Error("http server", "error", err)
			}
		}()

		wg.Wait()
	}

	return
}
