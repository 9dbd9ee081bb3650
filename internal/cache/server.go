package cache

import (
	"errors"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/atelierhq/atelier/internal/logger"
)

// startEmbedded starts an in-process NATS server with JetStream file
// storage rooted at dataDir. No network ports are opened.
func startEmbedded(dataDir string) (*server.Server, error) {
	logger.Debug("cache: starting embedded NATS server, data dir %s", dataDir)

	opts := &server.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		logger.Error("cache: failed to create NATS server: %v", err)
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		logger.Error("cache: NATS server failed to start within 4s")
		return nil, errors.New("cache: nats server failed to start within timeout")
	}
	return ns, nil
}

// connectInProcess dials the embedded server without touching the network.
func connectInProcess(ns *server.Server) (jetstream.JetStream, *nats.Conn, error) {
	nc, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		logger.Error("cache: in-process connect failed: %v", err)
		return nil, nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return js, nc, nil
}

// shutdown drains the connection, then stops the server, each bounded by a
// timeout so close never hangs the process.
func shutdown(nc *nats.Conn, ns *server.Server) error {
	if nc != nil {
		drainDone := make(chan error, 1)
		go func() {
			drainDone <- nc.Drain()
		}()
		select {
		case err := <-drainDone:
			if err != nil {
				logger.Warn("cache: NATS drain failed, forcing close: %v", err)
				nc.Close()
			}
		case <-time.After(2 * time.Second):
			logger.Warn("cache: NATS drain timed out, forcing close")
			nc.Close()
		}
	}

	if ns != nil {
		ns.Shutdown()
		shutdownDone := make(chan struct{})
		go func() {
			ns.WaitForShutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(5 * time.Second):
			logger.Error("cache: NATS server shutdown timed out")
			return errors.New("cache: nats server shutdown timed out")
		}
	}
	return nil
}
