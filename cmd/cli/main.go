package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/eaplatanios/curriculum/pkg/config"
)

const (
	dirMode = 0700
)

var (
	name    = "curriculum"
	version = "v0.0.1-default"
	commit  = ""

	dataDir = filepath.Join(getHomeDir(), "data")
	debug   = false

	cfg *config.Config

	debugFlag = &cli.BoolFlag{
		Name:        "debug",
		Usage:       "Prints verbose logs (optional, default: false)",
		Destination: &debug,
	}

	dataDirFlag = &cli.StringFlag{
		Name:        "data",
		Usage:       fmt.Sprintf("Path to the score cache directory (optional, defaults to $HOME/.%s/data)", name),
		Destination: &dataDir,
		Value:       dataDir,
	}
)

func main() {
	initLogging(name, version)

	var err error
	if cfg, err = config.ReadOrCreate(getHomeDir()); err != nil {
		fatalErr(err)
	}

	app := &cli.App{
		Name:     name,
		Version:  fmt.Sprintf("%s - (commit: %s)", version, commit),
		Compiled: time.Now(),
		Usage:    "CLI for scoring text corpora for curriculum learning",
		Flags: []cli.Flag{
			debugFlag,
			dataDirFlag,
		},
		Commands: []*cli.Command{
			scoreCmd,
			statusCmd,
			resetCmd,
		},
		Before: func(c *cli.Context) error {
			if c.Bool(debugFlag.Name) {
				log.SetLevel(log.DebugLevel)
			}

			path := c.String(dataDirFlag.Name)
			if path != "" {
				dataDir = path
			}
			return os.MkdirAll(dataDir, dirMode)
		},
	}

	err = app.Run(os.Args)
	if err != nil {
		fatalErr(err)
	}
}

func fatalErr(err error) {
	if err != nil {
		log.Fatalf("fatal error: %v", err)
		os.Exit(1)
	}
}

func initLogging(name, version string) {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	log.SetReportCaller(false)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:          false,
		DisableTimestamp:       true,
		ForceColors:            true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Debugf("error getting home dir, using current dir instead: %v", err)
		return "."
	}
	log.Debugf("home dir: %s", home)

	dirName := "." + name
	dirPath := filepath.Join(home, dirName)
	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		log.Debugf("creating dir: %s", dirPath)
		err := os.Mkdir(dirPath, dirMode)
		if err != nil {
			log.Debugf("error creating dir: %s, using home: %s - %v", dirPath, home, err)
			return home
		}
	}
	return dirPath
}
