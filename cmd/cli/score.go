package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/eaplatanios/curriculum/pkg/compute"
	"github.com/eaplatanios/curriculum/pkg/score"
)

var (
	corpusDirFlag = &cli.StringFlag{
		Name:     "dir",
		Usage:    "Path to the directory holding the corpus files",
		Required: true,
	}

	scoreSelectorFlag = &cli.StringFlag{
		Name:     "score",
		Usage:    "Score to compute (e.g. sentence-length, sentence-rarity-min-pooling, cdf(sentence-length))",
		Required: true,
	}

	recomputeFlag = &cli.BoolFlag{
		Name:  "recompute",
		Usage: "Deletes all cached score files and recomputes everything (optional, default: false)",
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Compute a score over every file of a corpus directory",
		Flags: []cli.Flag{
			corpusDirFlag,
			scoreSelectorFlag,
			recomputeFlag,
		},
		Action: cmdScore,
	}
)

type ScoreResult struct {
	Score    string `json:"score"`
	Corpus   string `json:"corpus"`
	Duration string `json:"duration,omitempty"`
}

func cmdScore(c *cli.Context) error {
	start := time.Now()

	reg := score.NewRegistry(score.Options{
		CaseSensitive: cfg.CaseSensitive,
		Epsilon:       cfg.Epsilon,
		MaxNumBins:    cfg.MaxNumBins,
	})
	root, err := reg.Get(c.String(scoreSelectorFlag.Name))
	if err != nil {
		return err
	}

	engine, err := compute.NewEngine(c.String(corpusDirFlag.Name), dataDir, c.Bool(recomputeFlag.Name))
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Run(c.Context, root); err != nil {
		return errors.Wrapf(err, "failed to compute score %q", root.Name())
	}

	res := &ScoreResult{
		Score:    root.Name(),
		Corpus:   c.String(corpusDirFlag.Name),
		Duration: time.Since(start).String(),
	}
	if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
		return errors.Wrapf(err, "error encoding result: %+v", res)
	}
	return nil
}
