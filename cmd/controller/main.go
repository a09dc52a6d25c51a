package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/joho/godotenv"

	"github.com/tasklab/shaping-controller/internal/config"
	"github.com/tasklab/shaping-controller/internal/monitor"
	"github.com/tasklab/shaping-controller/internal/replay"
	"github.com/tasklab/shaping-controller/internal/shaping"
	"github.com/tasklab/shaping-controller/internal/task"
)

// #region main
func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML run config")
	dbPath := flag.String("db", "", "override monitor database path")
	policyName := flag.String("policy", "", "override scripted policy")
	trials := flag.Int("trials", 0, "override number of trials to run")
	seed := flag.Int64("seed", -1, "override RNG seed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.ApplyEnv()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *policyName != "" {
		cfg.Policy = *policyName
	}
	if *trials > 0 {
		cfg.Trials = *trials
	}
	if *seed >= 0 {
		cfg.Seed = *seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("run: %v", err)
	}
}

// #endregion main

// #region run
func run(cfg config.Config) error {
	store, err := monitor.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	optionsJSON, err := json.Marshal(replay.FromOptions(cfg.Options()))
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	runRec, err := store.BeginRun("twoafc", cfg.Policy, cfg.Seed, cfg.Shaping.InitPhase, string(optionsJSON))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	env := task.NewTwoAFC(task.TwoAFCConfig{Seed: cfg.Seed})
	ctrl, err := shaping.New(env, cfg.Options())
	if err != nil {
		return fmt.Errorf("build controller: %w", err)
	}
	ctrl.Observe(monitor.NewRecorder(store, runRec.RunID))

	policy, err := replay.NewPolicy(cfg.Policy, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return err
	}

	fmt.Printf("Curriculum run %s\n", runRec.RunID)
	fmt.Printf("  DB: %s | policy: %s | trials: %d | init phase: %d\n",
		cfg.DBPath, cfg.Policy, cfg.Trials, cfg.Shaping.InitPhase)

	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = cfg.Trials * 1000
	}

	prev := task.StepResult{Obs: ctrl.Reset()}
	completed := 0
	steps := 0
	for steps < maxSteps && completed < cfg.Trials {
		res := ctrl.Step(policy.Act(prev))
		prev = res
		steps++
		if res.Info.NewTrial {
			completed++
			if completed%100 == 0 {
				mean, n, err := store.MeanPerformance(runRec.RunID, 100)
				if err == nil {
					fmt.Printf("[%d trials] phase=%d mean_perf(last %d)=%.3f\n",
						completed, ctrl.Phase(), n, mean)
				}
			}
		}
		if res.Done {
			prev = task.StepResult{Obs: ctrl.Reset()}
		}
	}

	transitions, err := store.Transitions(runRec.RunID)
	if err != nil {
		return fmt.Errorf("read transitions: %w", err)
	}
	fmt.Printf("\nDone: %d trials, %d steps, final phase %d\n", completed, steps, ctrl.Phase())
	for _, tr := range transitions {
		fmt.Printf("  trial %-6d phase %d → %d (window mean %.3f)\n",
			tr.TrialNum, tr.FromPhase, tr.ToPhase, tr.WindowMean)
	}
	if completed < cfg.Trials {
		fmt.Fprintf(os.Stderr, "warning: step budget exhausted after %d trials\n", completed)
	}
	return nil
}

// #endregion run
