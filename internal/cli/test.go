package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool
	Filter    string
	GoldenDir string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run ledger scenarios",
		Long: `Run the YAML scenarios in a directory, each on a fresh in-memory ledger.

Step outcomes and assertions are checked. When <golden-dir>/<name>.golden
exists the canonical trace must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error

Examples:
  labledger test ./scenarios
  labledger test ./scenarios --filter "publish_*"
  labledger test ./scenarios --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current traces")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default <scenarios-dir>/golden)")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	f := newFormatter(cmd, opts.RootOptions)

	files, err := scenarioFiles(dir, opts.Filter)
	if errors.Is(err, os.ErrNotExist) {
		msg := "scenarios directory not found: " + dir
		_ = f.Error(ErrCodeNotFound, msg, nil)
		return &ExitError{Code: ExitCommandError, Message: msg, Reported: true}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}

	r := scenarioRunner{
		opts:      opts,
		goldenDir: opts.GoldenDir,
		w:         f.Writer,
		text:      f.Format != "json",
	}
	if r.goldenDir == "" {
		r.goldenDir = filepath.Join(dir, "golden")
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, path := range files {
		result.add(r.run(path))
	}
	return reportTests(f, result)
}

// scenarioFiles lists the .yaml and .yml files directly under dir whose
// base name matches filter.
func scenarioFiles(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

type scenarioRunner struct {
	opts      *TestOptions
	goldenDir string
	w         io.Writer
	text      bool
}

// run executes one scenario file and prints its line in text mode.
func (r scenarioRunner) run(path string) ScenarioResult {
	res, note := r.check(path)
	if r.text {
		if res.Pass {
			green.Fprintf(r.w, "✓ %s%s\n", res.Name, note)
		} else {
			red.Fprintf(r.w, "✗ %s\n", res.Name)
			for _, e := range res.Errors {
				fmt.Fprintf(r.w, "  %s\n", e)
			}
		}
	}
	return res
}

func (r scenarioRunner) check(path string) (ScenarioResult, string) {
	failed := func(name string, errs ...string) (ScenarioResult, string) {
		return ScenarioResult{Name: name, Errors: errs}, ""
	}

	s, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), "failed to load scenario: "+err.Error())
	}
	result, err := harness.Run(s)
	if err != nil {
		return failed(s.Name, "execution failed: "+err.Error())
	}
	trace, err := harness.Snapshot(s.Name, result)
	if err != nil {
		return failed(s.Name, "failed to encode trace: "+err.Error())
	}

	var errs []string
	note := ""
	goldenPath := filepath.Join(r.goldenDir, s.Name+".golden")
	if r.opts.Update {
		if err := writeGolden(goldenPath, trace); err != nil {
			return failed(s.Name, err.Error())
		}
		note = " (golden updated)"
	} else if want, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(want, trace) {
			errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return failed(s.Name, "failed to read golden file: "+err.Error())
	}

	errs = append(errs, result.Errors...)
	if len(errs) > 0 {
		return failed(s.Name, errs...)
	}
	return ScenarioResult{Name: s.Name, Pass: true}, note
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func reportTests(f *OutputFormatter, result TestResult) error {
	if result.Total == 0 {
		return f.Print(result, "No scenarios found.\n")
	}

	var failure error
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		failure = &ExitError{Code: ExitFailure, Message: msg, Reported: true}
		if f.Format == "json" {
			if err := json.NewEncoder(f.Writer).Encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: "E_TEST_FAILED", Message: msg},
			}); err != nil {
				return err
			}
			return failure
		}
	}

	if f.Format != "json" {
		fmt.Fprintf(f.Writer, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if failure != nil {
			return failure
		}
	}
	return f.Success(result, "All scenarios passed")
}
