package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/ledger"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Caller string
	Key    string
}

// RecordView is the output form of a stored record.
type RecordView struct {
	Key      string `json:"key"`
	Tester   string `json:"tester"`
	Positive bool   `json:"positive"`
}

func newRecordView(key ledger.Key, rec ledger.Record) RecordView {
	return RecordView{Key: key.String(), Tester: string(rec.Tester()), Positive: rec.Positive()}
}

func (v RecordView) String() string {
	return fmt.Sprintf("%s tester=%q positive=%t", v.Key, v.Tester, v.Positive)
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get [subject]",
		Short: "Show a stored test result",
		Long: `Show the record a caller holds for a subject, or the record at a key.

Examples:
  labledger get patient-42 --caller C1
  labledger get --key 6a7f5e5b...603b`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "caller", "", "caller that published the record")
	cmd.Flags().StringVar(&opts.Key, "key", "", "record key (64 hex characters)")
	cmd.MarkFlagsMutuallyExclusive("caller", "key")

	return cmd
}

func runGet(cmd *cobra.Command, opts *GetOptions, args []string) error {
	f := newFormatter(cmd, opts.RootOptions)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var key ledger.Key
	switch {
	case opts.Key != "":
		if len(args) > 0 {
			_ = f.Error(ErrCodeInvalidArg, "give a subject or --key, not both", nil)
			return &ExitError{Code: ExitCommandError, Message: "give a subject or --key, not both", Reported: true}
		}
		k, err := ledger.ParseKey(opts.Key)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidArg, "invalid key", err)
		}
		key = k
	case len(args) == 1:
		if !cmd.Flags().Changed("caller") {
			_ = f.Error(ErrCodeInvalidArg, "--caller is required with a subject", nil)
			return &ExitError{Code: ExitCommandError, Message: "--caller is required with a subject", Reported: true}
		}
	default:
		_ = f.Error(ErrCodeInvalidArg, "give a subject or --key", nil)
		return &ExitError{Code: ExitCommandError, Message: "give a subject or --key", Reported: true}
	}

	s, err := openSession(ctx, cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	var rec ledger.Record
	if opts.Key != "" {
		rec, err = s.handler.Get(ctx, key)
	} else {
		key, rec, err = s.handler.Lookup(ctx, ledger.Signed(ledger.Identity(opts.Caller)), []byte(args[0]))
	}
	if err != nil {
		return f.Rejected(err)
	}

	view := newRecordView(key, rec)
	return f.Print(view, view.String()+"\n")
}
