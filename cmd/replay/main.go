package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tasklab/shaping-controller/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every trial")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	os.Exit(runFixture(*fixturePath, *verbose))
}

// #endregion main

// #region fixture-mode

func runFixture(path string, verbose bool) int {
	fix, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	res, err := replay.Run(fix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if fix.Description != "" {
		fmt.Println(fix.Description)
	}

	if verbose {
		fmt.Printf("%-8s| %-6s| %-6s| %-8s| %s\n", "Trial", "Phase", "Perf", "Reward", "Steps")
		for _, tr := range res.Trials {
			fmt.Printf("%-8d| %-6d| %-6.1f| %-8.2f| %d\n",
				tr.TrialNum, tr.Phase, tr.Performance, tr.Reward, tr.Steps)
		}
		fmt.Println()
	}

	sum := replay.Summarize(res)
	fmt.Printf("Summary: %d trials, %d steps, %d transitions, mean perf %.3f, final phase %d\n",
		sum.Trials, sum.Steps, sum.Transitions, sum.MeanPerformance, sum.FinalPhase)

	mismatches := replay.Verify(res, fix.Checkpoints)
	total := len(fix.Checkpoints)
	if total == 0 {
		return 0
	}

	fmt.Printf("\n%-8s| %-10s| %-10s| %s\n", "Trial", "Expected", "Got", "Match")
	bad := make(map[int]replay.Mismatch, len(mismatches))
	for _, m := range mismatches {
		bad[m.Trial] = m
	}
	for _, cp := range fix.Checkpoints {
		if m, ok := bad[cp.Trial]; ok {
			fmt.Printf("%-8d| %-10d| %-10d| DIFF\n", cp.Trial, cp.Phase, m.Got)
		} else {
			fmt.Printf("%-8d| %-10d| %-10d| OK\n", cp.Trial, cp.Phase, cp.Phase)
		}
	}

	fmt.Printf("\nCheckpoints: %d total, %d match, %d diverge\n",
		total, total-len(mismatches), len(mismatches))
	if len(mismatches) > 0 {
		return 1
	}
	return 0
}

// #endregion fixture-mode
