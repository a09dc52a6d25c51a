package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tasklab/shaping-controller/internal/monitor"
	"github.com/tasklab/shaping-controller/internal/replay"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to curriculum.db")
	runID := flag.String("run", "", "run to export (default: latest)")
	out := flag.String("out", "", "output fixture path (default: stdout)")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/curriculum.db [--run id] [--out fixture.json]")
		os.Exit(2)
	}

	if err := export(*dbPath, *runID, *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

// export rebuilds a replay fixture from a recorded run: the options and
// seed it ran with, plus the phase timeline it produced as checkpoints.
func export(dbPath, runID, out string) error {
	store, err := monitor.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var run monitor.RunRecord
	if runID == "" {
		run, err = store.LatestRun()
	} else {
		run, err = store.GetRun(runID)
	}
	if err != nil {
		return err
	}

	var opts replay.FixtureOptions
	if run.OptionsJSON == "" {
		return fmt.Errorf("run %s has no recorded options", run.RunID)
	}
	if err := json.Unmarshal([]byte(run.OptionsJSON), &opts); err != nil {
		return fmt.Errorf("parse run options: %w", err)
	}

	trials, err := store.RecentTrials(run.RunID, 1)
	if err != nil {
		return err
	}
	if len(trials) == 0 {
		return fmt.Errorf("run %s has no trials", run.RunID)
	}
	lastTrial := trials[0]

	transitions, err := store.Transitions(run.RunID)
	if err != nil {
		return err
	}

	// Checkpoint each transition trial at its new phase, plus the final
	// trial at its recorded phase.
	checkpoints := make([]replay.PhaseCheckpoint, 0, len(transitions)+1)
	for _, tr := range transitions {
		if tr.TrialNum+1 > lastTrial.TrialNum {
			continue
		}
		checkpoints = append(checkpoints, replay.PhaseCheckpoint{Trial: tr.TrialNum + 1, Phase: tr.ToPhase})
	}
	checkpoints = append(checkpoints, replay.PhaseCheckpoint{Trial: lastTrial.TrialNum, Phase: lastTrial.Phase})

	fix := replay.Fixture{
		Description: fmt.Sprintf("exported from run %s (%s/%s)", run.RunID, run.Task, run.Policy),
		Options:     opts,
		Policy:      run.Policy,
		Seed:        run.Seed,
		MaxTrials:   lastTrial.TrialNum,
		Checkpoints: checkpoints,
	}

	data, err := json.MarshalIndent(fix, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	fmt.Printf("wrote %s (%d checkpoints)\n", out, len(checkpoints))
	return nil
}

// #endregion export
