package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type (
	// Configuration - client configuration
	Configuration struct {
		// Name - component name shown in shell prompt
		Name string
		// ConfigFile - path to YAML file with server address
		ConfigFile string
		// Host - chat server host, overrides chatserver.host
		Host string
		// TCPPort - chat server TCP port, overrides chatserver.tcp.port
		TCPPort int
		// UDPPort - chat server UDP port, overrides chatserver.udp.port
		UDPPort int
		// LookupWindow - time to wait for peer address
		LookupWindow time.Duration
		// AckTimeout - time to wait for peer acknowledgment
		AckTimeout time.Duration
		// Debug - write diagnostic log to stderr
		Debug bool
	}
)

var (
	// Config - current configuration of the client
	Config = Configuration{
		Name:         "ChatClient",
		LookupWindow: 3 * time.Second,
		AckTimeout:   5 * time.Second,
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - application version fingerprint
	Version = "0.4.0"
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Launch interactive chat client\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	help := false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.StringVar(&Config.Name, "name", Config.Name, "Client name shown in shell prompt")
	flag.StringVar(&Config.ConfigFile, "config", "", "Path to YAML configuration file")
	flag.StringVar(&Config.Host, "host", "", "Chat server host, chatserver.host of configuration file or localhost if omitted")
	flag.IntVar(&Config.TCPPort, "tcp-port", 0, "Chat server TCP port, chatserver.tcp.port of configuration file or 6000 if omitted")
	flag.IntVar(&Config.UDPPort, "udp-port", 0, "Chat server UDP port, chatserver.udp.port of configuration file or 6001 if omitted")
	flag.DurationVar(&Config.LookupWindow, "lookup-window", Config.LookupWindow, "Time to wait for peer address")
	flag.DurationVar(&Config.AckTimeout, "ack-timeout", Config.AckTimeout, "Time to wait for acknowledgment of private message")
	flag.BoolVar(&Config.Debug, "debug", false, "Write diagnostic log to stderr")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	if Config.TCPPort < 0 || Config.TCPPort > 65535 || Config.UDPPort < 0 || Config.UDPPort > 65535 {
		printError("port value should be in range 1-65535")
		os.Exit(1)
	}
	if Config.LookupWindow <= 0 || Config.AckTimeout <= 0 {
		printError("lookup-window and ack-timeout values should be positive")
		os.Exit(1)
	}
}
