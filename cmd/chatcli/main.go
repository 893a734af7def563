package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/client"
	"github.com/wtask/chatrelay/internal/chat/console"
	"github.com/wtask/chatrelay/internal/config"
)

func main() {
	out := console.NewTerminal(os.Stdout)

	logger := zap.NewNop()
	if Config.Debug {
		l, err := zap.NewDevelopment()
		if err != nil {
			out.Errorf("Unable to build logger: %v", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()

	provider := config.FromMap(nil)
	if Config.ConfigFile != "" {
		p, err := config.Load(Config.ConfigFile)
		if err != nil {
			out.Errorf("%v", err)
			os.Exit(1)
		}
		provider = p
	}
	host := Config.Host
	if host == "" {
		host = provider.StringOr("chatserver.host", "localhost")
	}
	tcpPort, err := port(Config.TCPPort, provider, "chatserver.tcp.port", 6000)
	if err != nil {
		out.Errorf("%v", err)
		os.Exit(1)
	}
	udpPort, err := port(Config.UDPPort, provider, "chatserver.udp.port", 6001)
	if err != nil {
		out.Errorf("%v", err)
		os.Exit(1)
	}

	c, err := client.New(
		net.JoinHostPort(host, strconv.Itoa(tcpPort)),
		net.JoinHostPort(host, strconv.Itoa(udpPort)),
		client.WithLogger(logger),
		client.WithConsole(out),
		client.WithLookupWindow(Config.LookupWindow),
		client.WithAckTimeout(Config.AckTimeout),
	)
	if err != nil {
		out.Errorf("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out.WriteLine(fmt.Sprintf("Starting Chatclient. Using Chatserver: %s, Tcp Port: %d, Udp Port: %d", host, tcpPort, udpPort))
	done := make(chan struct{})
	go func() {
		defer close(done)
		shell(ctx, "["+Config.Name+"]shell> ", os.Stdin, out, c)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
	c.Exit(5 * time.Second)
	out.WriteLine("Shutting down Chatclient.")
}

// port - flag value when set, otherwise value of configuration key.
func port(flagValue int, p *config.Provider, key string, fallback int) (int, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	return p.Port(key, fallback)
}
