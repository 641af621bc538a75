// SPDX-FileCopyrightText: Aksel Lund <aksel@lund.codes>
//
// SPDX-License-Identifier: MIT

//go:build linux || freebsd

// Package main implements the geoaddr command line tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/vorlif/spreak"

	"github.com/aksellund/geoaddr/internal/config"
	"github.com/aksellund/geoaddr/internal/geocode"
	"github.com/aksellund/geoaddr/internal/i18n"
	"github.com/aksellund/geoaddr/internal/logger"
	"github.com/aksellund/geoaddr/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT,
		os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	flag.Usage = usage
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	// Initialize the service
	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize geoaddr service", logger.Err(err))
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "", "locate":
		err = runLocate(ctx, serv, t)
	case "resolve":
		err = runResolve(ctx, serv, t, flag.Args()[1:])
	case "decode":
		err = runDecode(ctx, serv, flag.Args()[1:])
	case "near":
		err = runNear(ctx, serv, flag.Args()[1:])
	case "watch":
		err = serv.Watch(ctx, os.Stdout)
	case "version":
		fmt.Printf("geoaddr %s (commit: %s, built: %s)\n", version, commit, date)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(t.Get("command failed"), logger.Err(err))
		os.Exit(1)
	}
}

func runLocate(ctx context.Context, serv *service.Service, t *spreak.Localizer) error {
	outcome, err := serv.AddressFromGPS(ctx)
	if err != nil {
		return err
	}
	if outcome.PermissionDenied {
		fmt.Println(t.Get("Location permission denied"))
		return nil
	}
	fmt.Println(serv.Presenter().FormatPosition(outcome.Position))
	fmt.Println(serv.Presenter().FormatAddress(*outcome.Address))
	return nil
}

func runResolve(ctx context.Context, serv *service.Service, t *spreak.Localizer, args []string) error {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	lat := flags.Float64("lat", 0, "latitude of the coordinate to resolve")
	lon := flags.Float64("lon", 0, "longitude of the coordinate to resolve")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("failed to parse resolve flags: %w", err)
	}
	// Positional fallback: "resolve <lat> <lon>" works without flags.
	if rest := flags.Args(); len(rest) == 2 {
		var err error
		if *lat, err = strconv.ParseFloat(rest[0], 64); err != nil {
			return fmt.Errorf("failed to parse latitude: %w", err)
		}
		if *lon, err = strconv.ParseFloat(rest[1], 64); err != nil {
			return fmt.Errorf("failed to parse longitude: %w", err)
		}
	}

	outcome, err := serv.AddressFromCoordinates(ctx, *lat, *lon)
	if err != nil {
		return err
	}
	if outcome.PermissionDenied {
		fmt.Println(t.Get("Location permission denied"))
		return nil
	}
	fmt.Println(serv.Presenter().FormatAddress(*outcome.Address))
	return nil
}

func runDecode(ctx context.Context, serv *service.Service, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("decode requires an address argument")
	}
	component, err := serv.DecodeAddress(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(serv.Presenter().FormatAddress(component))
	return nil
}

func runNear(ctx context.Context, serv *service.Service, args []string) error {
	flags := flag.NewFlagSet("near", flag.ContinueOnError)
	file := flags.String("file", "", "path to a JSON file with an array of addresses")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("failed to parse near flags: %w", err)
	}

	var addresses []*geocode.AddressComponent
	switch {
	case *file != "":
		loaded, err := loadAddressFile(*file)
		if err != nil {
			return err
		}
		addresses = loaded
	case len(flags.Args()) > 0:
		for _, arg := range flags.Args() {
			component, err := serv.DecodeAddress(ctx, arg)
			if err != nil {
				return fmt.Errorf("failed to decode %q: %w", arg, err)
			}
			addresses = append(addresses, &component)
		}
	default:
		return fmt.Errorf("near requires -file or at least one address argument")
	}

	ranking, err := serv.AddressesByDistance(ctx, addresses)
	if err != nil {
		return err
	}
	fmt.Println(serv.Presenter().FormatRanking(ranking))
	return nil
}

func loadAddressFile(path string) ([]*geocode.AddressComponent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read address file: %w", err)
	}
	var components []geocode.AddressComponent
	if err := json.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("failed to parse address file: %w", err)
	}
	addresses := make([]*geocode.AddressComponent, 0, len(components))
	for i := range components {
		addresses = append(addresses, &components[i])
	}
	return addresses, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: geoaddr [flags] [command]

Commands:
  locate               resolve the current position into an address (default)
  resolve <lat> <lon>  resolve explicit coordinates into an address
                       (also accepts -lat and -lon flags)
  decode <address>     look up coordinates for a free-form address
  near <address> ...   rank addresses by distance from the current position
                       (also accepts -file with a JSON address array)
  watch                re-resolve the current address on an interval
  version              print version information

Flags:
`)
	flag.PrintDefaults()
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "geoaddr", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
