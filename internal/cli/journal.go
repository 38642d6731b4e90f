package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/ledger"
	"github.com/roach88/labledger/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	After int64
	Key   string
}

// JournalEntryView is the output form of a journal entry.
type JournalEntryView struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Key      string `json:"key"`
	Tester   string `json:"tester"`
	Positive bool   `json:"positive"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List journal entries",
		Long: `List the append-only journal of a SQLite ledger in seq order.

Examples:
  labledger journal --db ./ledger.db --driver sqlite
  labledger journal --driver sqlite --after 100
  labledger journal --driver sqlite --key 6a7f5e5b...603b`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only entries with seq greater than this")
	cmd.Flags().StringVar(&opts.Key, "key", "", "only entries for this key")

	return cmd
}

func runJournal(cmd *cobra.Command, opts *JournalOptions) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireSQLite(f, "journal"); err != nil {
		return err
	}

	var entries []store.JournalEntry
	if opts.Key != "" {
		key, perr := ledger.ParseKey(opts.Key)
		if perr != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArg, "invalid key", perr)
		}
		entries, err = s.sqlite.History(ctx, key)
		entries = filterAfter(entries, opts.After)
	} else {
		entries, err = s.sqlite.Journal(ctx, opts.After)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to read journal", err)
	}

	views := make([]JournalEntryView, len(entries))
	var text strings.Builder
	for i, e := range entries {
		views[i] = JournalEntryView{
			Seq:      e.Seq,
			Kind:     string(e.Kind),
			Key:      e.Key.String(),
			Tester:   string(e.Record.Tester()),
			Positive: e.Record.Positive(),
		}
		fmt.Fprintf(&text, "%6d  %-9s  %s  tester=%q positive=%t\n",
			e.Seq, e.Kind, cyan.Sprint(e.Key), e.Record.Tester(), e.Record.Positive())
	}
	if len(entries) == 0 {
		text.WriteString("No journal entries.\n")
	}
	return f.Print(views, text.String())
}

func filterAfter(entries []store.JournalEntry, after int64) []store.JournalEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out
}

// VerifyView is the output form of a replay report.
type VerifyView struct {
	OK         bool     `json:"ok"`
	Entries    int      `json:"entries"`
	Records    int      `json:"records"`
	Published  int      `json:"published"`
	Updated    int      `json:"updated"`
	Mismatches []string `json:"mismatches,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the journal against stored records",
		Long: `Replay the SQLite journal from the beginning and compare the result with
the records table. Also checks that each key was published before it was
updated and published only once.

Exit codes:
  0 - Journal and records agree
  1 - Mismatches found
  2 - Command error

Example:
  labledger verify --driver sqlite --db ./ledger.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, rootOpts)
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, opts *RootOptions) error {
	f := newFormatter(cmd, opts)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireSQLite(f, "verify"); err != nil {
		return err
	}

	report, err := s.sqlite.Replay(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to replay journal", err)
	}

	view := VerifyView{
		OK:        report.OK(),
		Entries:   report.Entries,
		Records:   report.Records,
		Published: report.Published,
		Updated:   report.Updated,
	}
	for _, m := range report.Mismatches {
		view.Mismatches = append(view.Mismatches, m.String())
	}

	if report.OK() {
		return f.Success(view, fmt.Sprintf("journal verified: %d entries, %d records (%d published, %d updated)",
			view.Entries, view.Records, view.Published, view.Updated))
	}

	_ = f.Error(ErrCodeMismatch, fmt.Sprintf("%d mismatch(es) between journal and records", len(view.Mismatches)), view)
	if f.Format != "json" {
		for _, m := range view.Mismatches {
			fmt.Fprintf(f.Writer, "  %s\n", m)
		}
	}
	return &ExitError{Code: ExitFailure, Message: "journal verification failed", Reported: true}
}
