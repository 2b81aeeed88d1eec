package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

var (
	batchOutput string
	batchMode   string
	batchLimit  int
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Evaluate a directory of scenario files",
	Long:  "Runs every JSON or YAML scenario in a directory through the match engine concurrently and writes one payload file per scenario.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := listScenarioFiles(args[0])
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			zap.L().Info("no scenario files found", zap.String("dir", args[0]))
			return nil
		}
		if batchLimit > 0 && len(paths) > batchLimit {
			paths = paths[:batchLimit]
		}

		eng, err := engine.New()
		if err != nil {
			return err
		}
		opts, err := buildEngineOptions(batchMode)
		if err != nil {
			return err
		}

		if batchOutput != "" {
			if err := os.MkdirAll(batchOutput, 0o755); err != nil {
				return eris.Wrap(err, "create output dir")
			}
		}

		return processScenarioBatch(paths, cfg.Batch.MaxConcurrentScenarios, func(path string) (*model.MatchPayload, error) {
			raw, err := readScenarioFile(path)
			if err != nil {
				return nil, err
			}
			payload := eng.Run(raw, opts)
			if batchOutput != "" {
				if err := writePayload(batchOutput, path, &payload); err != nil {
					return nil, err
				}
			}
			return &payload, nil
		})
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "directory for result payloads (default: print summary only)")
	batchCmd.Flags().StringVar(&batchMode, "mode", "", "presentation mode for all scenarios")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of scenarios to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

type matchFunc func(path string) (*model.MatchPayload, error)

// processScenarioBatch evaluates scenario files concurrently. Individual
// failures are logged and counted without aborting the batch.
func processScenarioBatch(paths []string, concurrency int, run matchFunc) error {
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("scenarios", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	var mu sync.Mutex
	totals := map[model.OverlayRiskLevel]int{}

	for _, path := range paths {
		path := path
		g.Go(func() error {
			log := zap.L().With(zap.String("scenario", filepath.Base(path)))

			payload, err := run(path)
			if err != nil {
				failed.Add(1)
				log.Error("scenario evaluation failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			mu.Lock()
			totals[payload.OverlayRisk.Level]++
			mu.Unlock()
			log.Info("scenario evaluated",
				zap.Int("eligible", payload.TotalEligible),
				zap.String("overlayRisk", string(payload.OverlayRisk.Level)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int("lowRisk", totals[model.OverlayLow]),
		zap.Int("moderateRisk", totals[model.OverlayModerate]),
		zap.Int("highRisk", totals[model.OverlayHigh]),
	)
	return nil
}

func listScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read scenario dir %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func readScenarioFile(path string) (engine.RawScenario, error) {
	var raw engine.RawScenario

	data, err := os.ReadFile(path)
	if err != nil {
		return raw, eris.Wrapf(err, "read scenario %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return raw, eris.Wrapf(err, "parse scenario %s", path)
	}
	return raw, nil
}

func writePayload(outDir, scenarioPath string, payload *model.MatchPayload) error {
	base := strings.TrimSuffix(filepath.Base(scenarioPath), filepath.Ext(scenarioPath))
	outPath := filepath.Join(outDir, base+".result.json")

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal payload")
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return eris.Wrapf(err, "write payload %s", outPath)
	}
	return nil
}
