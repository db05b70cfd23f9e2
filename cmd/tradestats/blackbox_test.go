//go:build blackbox

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var tradestatsBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "tradestats-blackbox-*")
	if err != nil {
		panic(err)
	}

	tradestatsBin = filepath.Join(tmp, "tradestats")

	// Build the binary once for all tests.
	cmd := exec.Command("go", "build", "-o", tradestatsBin, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic(err)
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func run(t *testing.T, args ...string) string {
	t.Helper()

	cmd := exec.Command(tradestatsBin, args...)
	cmd.Dir = t.TempDir()
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %v\nargs: %v\noutput:\n%s", err, args, string(out))
	}
	return string(out)
}

func TestBlackboxVersion(t *testing.T) {
	out := run(t, "version")
	if !strings.Contains(out, "tradestats version") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestBlackboxAnalyze(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	csv := "gain,date\n0.10,2023-02-01\n-0.05,2023-08-01\n0.08,2024-01-10\n-0.02,2024-03-05\n"
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}

	out := run(t, "analyze", "--csv", path, "--stake", "1000", "--capital", "10000", "--log-level", "error")
	for _, want := range []string{"Trades:        4", "Win Rate:      50.00%", "Flat Stake", "Yearly Breakdown", "2023", "2024"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}
