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
	// Configuration - server configuration
	Configuration struct {
		// ConfigFile - path to YAML file with ports and accounts
		ConfigFile string
		// IPAddress - bind the address
		IPAddress string
		// TCPPort - chat port, overrides tcp.port of config file
		TCPPort int
		// UDPPort - presence port, overrides udp.port of config file
		UDPPort int
		// MetricsAddress - serve prometheus metrics on the address, disabled if empty
		MetricsAddress string
		// ClientIdleTimeout - idle period before client is disconnected
		ClientIdleTimeout time.Duration
		// MaxConnections - max number of concurrently served TCP connections
		MaxConnections int
		// MaxDatagramWorkers - max number of concurrently answered UDP queries
		MaxDatagramWorkers int
		// Debug - verbose development logging
		Debug bool
		// HashPassword - print bcrypt hash of the password and exit
		HashPassword string
	}
)

const (
	defaultTCPPort = 6000
	defaultUDPPort = 6001
)

var (
	// Config - current configuration of the server
	Config = Configuration{
		ClientIdleTimeout:  30 * time.Minute,
		MaxConnections:     1024,
		MaxDatagramWorkers: 64,
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))

	// Version - application version fingerprint
	Version = "0.4.0"
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Launch rendezvous chat server over TCP and UDP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	help := false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.StringVar(&Config.ConfigFile, "config", "chatserver.yaml", "Path to YAML configuration file")
	flag.StringVar(&Config.IPAddress, "ip", "", "Listen address")
	flag.IntVar(&Config.TCPPort, "tcp-port", 0, "TCP chat port, tcp.port of configuration file or 6000 if omitted")
	flag.IntVar(&Config.UDPPort, "udp-port", 0, "UDP presence port, udp.port of configuration file or 6001 if omitted")
	flag.StringVar(&Config.MetricsAddress, "metrics", "", "Serve prometheus metrics at http://<address>/metrics")
	clientTTL := 30
	flag.IntVar(&clientTTL, "client-idle-timeout", clientTTL, "Idle period in minutes before client is disconnected.")
	flag.IntVar(&Config.MaxConnections, "max-connections", Config.MaxConnections, "Max number of concurrent TCP connections")
	flag.IntVar(&Config.MaxDatagramWorkers, "max-udp-workers", Config.MaxDatagramWorkers, "Max number of concurrently answered UDP queries")
	flag.BoolVar(&Config.Debug, "debug", false, "Verbose development logging")
	flag.StringVar(&Config.HashPassword, "hash-password", "", "Print bcrypt hash of given password for configuration file and exit")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}

	if clientTTL < 1 {
		printError("client-idle-timeout value should be greater 1")
		os.Exit(1)
	}
	Config.ClientIdleTimeout = time.Duration(clientTTL) * time.Minute

	if Config.TCPPort < 0 || Config.TCPPort > 65535 || Config.UDPPort < 0 || Config.UDPPort > 65535 {
		printError("port value should be in range 1-65535")
		os.Exit(1)
	}
	if Config.MaxConnections < 1 || Config.MaxDatagramWorkers < 1 {
		printError("max-connections and max-udp-workers values should be greater 0")
		os.Exit(1)
	}
}
