package bootstrap

import (
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/overlaydb/configuration"
)

func TestBootstrap_BadLogLevel(t *testing.T) {

	c := configuration.Default()
	c.Dir = t.TempDir()
	c.LogLevel = "loud"

	_, _, err := Bootstrap(&c)
	biff.AssertNotNil(err)
}

func TestBootstrap_StartStop(t *testing.T) {

	c := configuration.Default()
	c.Dir = t.TempDir()
	c.HttpAddr = "127.0.0.1:0"

	start, stop, err := Bootstrap(&c)
	biff.AssertNil(err)

	done := make(chan struct{})
	go func() {
		start()
		close(done)
	}()

	stop()
	<-done
}
