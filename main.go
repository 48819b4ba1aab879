package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"FilamentLabeller/internal/config"
	"FilamentLabeller/internal/net"
	"FilamentLabeller/internal/ui"
)

const discoveryTimeout = 3 * time.Second

type options struct {
	configPath string
	server     string
	discover   bool
	doLog      bool
	writeConf  bool
}

func parseOptions() options {
	var opt options
	flag.StringVar(&opt.configPath, "config", config.DefaultPath(), "Path to the TOML config file")
	flag.StringVar(&opt.server, "server", "", "Base URL of the labelling server, e.g. http://localhost:8000")
	flag.BoolVar(&opt.discover, "discover", false, "Find the labelling server on the local network via mDNS")
	flag.BoolVar(&opt.doLog, "log", false, "Print debugging output to stderr")
	flag.BoolVar(&opt.writeConf, "write-config", false, "Write the effective config to -config and exit")
	flag.Parse()
	return opt
}

func main() {
	opt := parseOptions()

	conf, err := config.Load(opt.configPath)
	if err != nil {
		log.Fatalf("Couldn't load config: %v", err)
	}
	if opt.server != "" {
		conf.Server = opt.server
		conf.Discover = false
	}
	if opt.discover {
		conf.Discover = true
	}
	if !opt.doLog && !conf.Verbose {
		log.SetOutput(io.Discard)
	}
	if err := conf.Validate(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Invalid config: %v", err)
	}

	if opt.writeConf {
		if err := config.Write(opt.configPath, conf); err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("Couldn't write config: %v", err)
		}
		return
	}

	server := conf.Server
	if conf.Discover {
		ctx, cancel := context.WithTimeout(context.Background(), 2*discoveryTimeout)
		found, err := net.Discover(ctx, conf.Service, discoveryTimeout)
		cancel()
		switch {
		case err == nil:
			server = found
		case server != "":
			log.Printf("Discovery failed (%v), falling back to %s", err, server)
		default:
			log.SetOutput(os.Stderr)
			log.Fatalf("Couldn't find a labelling server: %v", err)
		}
	}

	client, err := net.NewClient(server, conf.RequestTimeout())
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Couldn't create client: %v", err)
	}
	log.Printf("Labelling against %s (session %s)", client.BaseURL(), client.Session())
	ui.RunApp(conf, client)
}
