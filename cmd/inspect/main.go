package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tasklab/shaping-controller/internal/monitor"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to curriculum.db")
	runID := flag.String("run", "", "run to inspect (default: latest)")
	last := flag.Int("last", 20, "show N most recent trials")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	listRuns := flag.Bool("runs", false, "list runs instead of inspecting one")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/curriculum.db [--run id] [--last N] [--runs] [--json]")
		os.Exit(2)
	}

	store, err := monitor.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *listRuns {
		if err := runListMode(store, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runDetailMode(store, *runID, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *monitor.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	fmt.Printf("%-36s| %-8s| %-10s| %-10s| %s\n", "Run", "Task", "Policy", "InitPhase", "Created")
	for _, r := range runs {
		fmt.Printf("%-36s| %-8s| %-10s| %-10d| %s\n",
			r.RunID, r.Task, r.Policy, r.InitPhase, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type runDetail struct {
	Run         monitor.RunRecord          `json:"run"`
	PhaseStats  []monitor.PhaseStat        `json:"phase_stats"`
	Transitions []monitor.TransitionRecord `json:"transitions"`
	Trials      []monitor.TrialRecord      `json:"recent_trials"`
}

func runDetailMode(store *monitor.Store, runID string, last int, jsonOut bool) error {
	var run monitor.RunRecord
	var err error
	if runID == "" {
		run, err = store.LatestRun()
	} else {
		run, err = store.GetRun(runID)
	}
	if err != nil {
		return err
	}

	stats, err := store.PhaseStats(run.RunID)
	if err != nil {
		return err
	}
	transitions, err := store.Transitions(run.RunID)
	if err != nil {
		return err
	}
	trials, err := store.RecentTrials(run.RunID, last)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runDetail{Run: run, PhaseStats: stats, Transitions: transitions, Trials: trials})
	}

	fmt.Printf("Run %s (task=%s policy=%s seed=%d init_phase=%d)\n",
		run.RunID, run.Task, run.Policy, run.Seed, run.InitPhase)

	fmt.Println("\nPhase stats:")
	fmt.Printf("  %-6s| %-8s| %s\n", "Phase", "Trials", "MeanPerf")
	for _, st := range stats {
		fmt.Printf("  %-6d| %-8d| %.3f\n", st.Phase, st.Trials, st.MeanPerf)
	}

	fmt.Println("\nTransitions:")
	if len(transitions) == 0 {
		fmt.Println("  (none)")
	}
	for _, tr := range transitions {
		fmt.Printf("  trial %-6d phase %d → %d (window mean %.3f)\n",
			tr.TrialNum, tr.FromPhase, tr.ToPhase, tr.WindowMean)
	}

	fmt.Printf("\nLast %d trials (newest first):\n", len(trials))
	fmt.Printf("  %-8s| %-6s| %-6s| %-8s| %s\n", "Trial", "Phase", "Perf", "Reward", "Steps")
	for _, tr := range trials {
		fmt.Printf("  %-8d| %-6d| %-6.1f| %-8.2f| %d\n",
			tr.TrialNum, tr.Phase, tr.Performance, tr.Reward, tr.Steps)
	}
	return nil
}

// #endregion detail-mode
