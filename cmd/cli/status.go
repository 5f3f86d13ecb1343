package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/eaplatanios/curriculum/pkg/compute"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	statusCmd = &cli.Command{
		Name:    "status",
		Aliases: []string{"st"},
		Usage:   "List the score cache files recorded in the manifest",
		Flags: []cli.Flag{
			formatFlag,
		},
		Action: cmdStatus,
	}
)

type StatusResult struct {
	DataDir string          `json:"data_dir" yaml:"dataDir"`
	Files   []compute.Entry `json:"files" yaml:"files"`
}

func cmdStatus(c *cli.Context) error {
	m, err := compute.OpenManifest(filepath.Join(dataDir, compute.ManifestFileName))
	if err != nil {
		return err
	}
	defer m.Close()

	entries, err := m.List()
	if err != nil {
		return err
	}

	res := &StatusResult{DataDir: dataDir, Files: entries}

	f := c.String(formatFlag.Name)
	if f == formatYAML || f == "yml" {
		if err := yaml.NewEncoder(os.Stdout).Encode(res); err != nil {
			return errors.Wrapf(err, "error encoding list: %+v", res)
		}
		return nil
	}
	if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
		return errors.Wrapf(err, "error encoding list: %+v", res)
	}
	return nil
}
