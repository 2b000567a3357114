package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/eatonphil/podrm"
)

func main() {
	var (
		cfg        podrm.Config
		configFile string
		logLevel   string
		example    bool
	)
	cfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&configFile, "config.file", "", "YAML file to load the database config from. Flags set explicitly are overridden by it.")
	flag.StringVar(&logLevel, "log.level", "info", "Only log messages with the given severity or above. One of: debug, info, warn, error.")
	flag.BoolVar(&example, "example", false, "Register and create the Address and Person example entities.")
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	lvl, err := level.Parse(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing log level:", err)
		os.Exit(1)
	}
	logger = level.NewFilter(logger, level.Allow(lvl))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if configFile != "" {
		if err := podrm.LoadConfig(configFile, &cfg); err != nil {
			level.Error(logger).Log("msg", "loading config", "err", err)
			os.Exit(1)
		}
	}

	conn, err := podrm.Open(cfg, podrm.WithLogger(logger))
	if err != nil {
		level.Error(logger).Log("msg", "opening database", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	registry := podrm.NewRegistry()
	if example {
		for _, d := range []*podrm.EntityDescription{addressDescription, personDescription} {
			if err := registry.Register(d); err != nil {
				level.Error(logger).Log("msg", "registering example entity", "entity", d.Table, "err", err)
				os.Exit(1)
			}
		}

		if err := registry.CreateAll(conn); err != nil {
			level.Error(logger).Log("msg", "creating example tables", "err", err)
			os.Exit(1)
		}
	}

	podrm.RunRepl(conn, registry)
}
