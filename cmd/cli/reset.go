package main

import (
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/eaplatanios/curriculum/pkg/compute"
)

var (
	resetCmd = &cli.Command{
		Name:   "reset",
		Usage:  "Delete all cached score files",
		Action: cmdReset,
	}
)

func cmdReset(c *cli.Context) error {
	cache, err := compute.NewCache(dataDir)
	if err != nil {
		return err
	}
	if err := cache.Clear(); err != nil {
		return err
	}

	m, err := compute.OpenManifest(filepath.Join(dataDir, compute.ManifestFileName))
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Clear(); err != nil {
		return err
	}

	log.Infof("score cache cleared: %s", dataDir)
	return nil
}
