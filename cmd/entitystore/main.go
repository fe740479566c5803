// Command entitystore is a maintenance tool for an entitystore database:
// it reports table status and optionally reclaims free space. Routine
// data access goes through the library, not this binary.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"entitystore/internal/config"
	"entitystore/internal/service"
	"entitystore/internal/store"
)

func main() {
	configPath := flag.String("config", "", "explicit config file path")
	dataDir := flag.String("data-dir", "", "override database directory")
	vacuum := flag.Bool("vacuum", false, "reclaim free space (blocks other writers)")
	flag.Parse()

	if err := run(*configPath, *dataDir, *vacuum); err != nil {
		fmt.Fprintln(os.Stderr, "entitystore:", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string, vacuum bool) error {
	var (
		cfg  *config.Config
		from string
		err  error
	)
	if configPath != "" {
		cfg, from, err = config.LoadFromPath(configPath)
	} else {
		cfg, from, err = config.Load()
	}
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Database.Directory = dataDir
	}

	log := cfg.Logging.NewLogger()
	if from != "" {
		log.Debug("config loaded", "path", from)
	}

	s, err := store.Open(cfg.Database, store.WithLogger(log))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	users, err := service.NewUserService(ctx, s, log)
	if err != nil {
		return err
	}
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("database: %s\nusers:    %d\n", cfg.Database.Path(), count)

	if vacuum {
		log.Info("vacuum started", "path", cfg.Database.Path())
		if err := s.Vacuum(ctx); err != nil {
			return err
		}
		log.Info("vacuum finished")
	}
	return nil
}
