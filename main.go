// Command boaai-puzzle runs a credentialless SSH gateway: every inbound
// connection gets its own puzzle process on a fresh pseudo-terminal.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Boa-Ai/BoaAI-Puzzle/internal/config"
	"github.com/Boa-Ai/BoaAI-Puzzle/internal/gateway"
	"github.com/Boa-Ai/BoaAI-Puzzle/internal/hostkey"
	"github.com/Boa-Ai/BoaAI-Puzzle/internal/logging"
	"github.com/Boa-Ai/BoaAI-Puzzle/internal/puzzle"
)

func main() {
	config.Load()
	cfg := &config.Cfg

	flag.StringVar(&cfg.Host, "host", cfg.Host, "listen address")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	flag.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "maximum concurrently serviced connections")
	flag.StringVar(&cfg.BinaryPath, "binary", cfg.BinaryPath, "path to the puzzle binary (default: discover under target/)")
	flag.StringVar(&cfg.HostKeyPath, "host-key", cfg.HostKeyPath, "path to the SSH host key (generated when absent)")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "optional log file (stdout is always used)")
	flag.Parse()

	logging.Init(cfg.LogPath)

	binary, err := puzzle.Resolve(cfg.BinaryPath)
	if err != nil {
		log.Fatalf("puzzle binary: %v", err)
	}

	signer, err := hostkey.Ensure(cfg.HostKeyPath)
	if err != nil {
		log.Fatalf("host key: %v", err)
	}

	gw := gateway.New(gateway.Config{
		Addr:       cfg.Addr(),
		Backlog:    cfg.Backlog,
		HostKey:    signer,
		BinaryPath: binary,
	})

	// Close the listener on SIGINT/SIGTERM so the accept loop returns;
	// sessions in flight finish on their own.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received %s, shutting down", sig)
		gw.Shutdown()
	}()

	if err := gw.ListenAndServe(); err != nil {
		log.Fatalf("gateway: %v", err)
	}
}
