package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wtask/chatrelay/internal/chat/console"
	"github.com/wtask/chatrelay/internal/chat/registry"
	"github.com/wtask/chatrelay/internal/chat/server"
	"github.com/wtask/chatrelay/internal/config"
)

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if Config.HashPassword != "" {
		hash, err := registry.HashPassword(Config.HashPassword, bcrypt.DefaultCost)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	logger, err := newLogger(Config.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: Unable to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("app", BinaryName), zap.String("version", Version))

	if err := run(logger); err != nil {
		logger.Error("chat server failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	provider, err := config.Load(Config.ConfigFile)
	if err != nil {
		return err
	}
	credentials, err := loadCredentials(provider)
	if err != nil {
		return fmt.Errorf("%s: %w", Config.ConfigFile, err)
	}
	tcpPort, err := port(Config.TCPPort, provider, "tcp.port", defaultTCPPort)
	if err != nil {
		return err
	}
	udpPort, err := port(Config.UDPPort, provider, "udp.port", defaultUDPPort)
	if err != nil {
		return err
	}

	reg := registry.New(credentials)
	srv, err := server.New(
		reg,
		server.WithLogger(logger),
		server.WithIdleTimeout(Config.ClientIdleTimeout),
		server.WithMaxConnections(Config.MaxConnections),
		server.WithMaxDatagramWorkers(Config.MaxDatagramWorkers),
	)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(Config.IPAddress, strconv.Itoa(tcpPort)))
	if err != nil {
		return fmt.Errorf("unable to listen TCP: %w", err)
	}
	packets, err := net.ListenPacket("udp", net.JoinHostPort(Config.IPAddress, strconv.Itoa(udpPort)))
	if err != nil {
		listener.Close()
		return fmt.Errorf("unable to listen UDP: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, 3)
	go func() { failed <- srv.ServeTCP(listener) }()
	go func() { failed <- srv.ServeUDP(packets) }()

	var metrics *http.Server
	if Config.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.Metrics().Handler())
		metrics = &http.Server{Addr: Config.MetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				failed <- fmt.Errorf("metrics: %w", err)
			}
		}()
		logger.Info("serving metrics", zap.String("address", Config.MetricsAddress))
	}

	out := console.NewTerminal(os.Stdout)
	out.WriteLine(fmt.Sprintf("Chat server is running, TCP port: %d, UDP port: %d. Type !exit to stop.", tcpPort, udpPort))
	done := make(chan struct{})
	go func() {
		defer close(done)
		shell(ctx, os.Stdin, out, reg)
	}()

	select {
	case <-ctx.Done():
		logger.Info("got stop signal")
	case <-done:
		logger.Info("stop requested from shell")
	case err = <-failed:
		logger.Error("listener failed", zap.Error(err))
	}

	if metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		metrics.Shutdown(shutdownCtx)
		cancel()
	}
	logger.Info("chat server stopped", zap.Duration("took", srv.Shutdown(10*time.Second)))
	out.WriteLine("Chat server is shut down.")
	return err
}
