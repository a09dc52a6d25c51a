package replay

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadFixture(t *testing.T) {
	path := writeFixtureFile(t, `{
		"description": "smoke",
		"options": {
			"init_phase": 0,
			"max_num_reps": 3,
			"short_dur_steps": 2,
			"threshold": 0.8,
			"perf_window": 10
		},
		"policy": "gt",
		"seed": 7,
		"max_trials": 50,
		"expected_phases": [{"trial": 1, "phase": 0}]
	}`)

	fix, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if fix.Policy != "gt" || fix.Seed != 7 || fix.MaxTrials != 50 {
		t.Fatalf("unexpected fixture: %+v", fix)
	}
	if fix.Options.Threshold != 0.8 || fix.Options.PerfWindow != 10 {
		t.Fatalf("unexpected options: %+v", fix.Options)
	}
	if len(fix.Checkpoints) != 1 || fix.Checkpoints[0].Phase != 0 {
		t.Fatalf("unexpected checkpoints: %+v", fix.Checkpoints)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFixtureBadJSON(t *testing.T) {
	path := writeFixtureFile(t, `{not json`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadFixtureRequiresTrialBudget(t *testing.T) {
	path := writeFixtureFile(t, `{"policy": "gt", "max_trials": 0}`)
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for zero trial budget")
	}
}

func TestFixtureOptionsRoundTrip(t *testing.T) {
	fo := FixtureOptions{
		InitPhase:     1,
		MaxNumReps:    4,
		ShortDurSteps: 3,
		Threshold:     0.7,
		PerfWindow:    25,
	}
	if got := FromOptions(fo.ToOptions()); got != fo {
		t.Fatalf("round trip changed options: %+v vs %+v", got, fo)
	}
}
