package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/config"
	"github.com/roach88/labledger/internal/ledger"
)

// TransitionOptions holds flags for publish and amend.
type TransitionOptions struct {
	*RootOptions
	Caller   string
	Tester   string
	Positive bool
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransitionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <subject>",
		Short: "Publish a test result",
		Long: `Publish the first test result the caller holds for a subject.

Fails with ALREADY_PUBLISHED if the caller already published for the subject.
Use amend to change an existing result.

Examples:
  labledger publish patient-42 --caller C1 --tester lab-A --positive
  labledger publish patient-42 --caller C1 --tester lab-A --driver sqlite --db ./ledger.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, opts, ledger.OpPublish, args[0])
		},
	}
	addTransitionFlags(cmd, opts)
	return cmd
}

// NewAmendCommand creates the amend command.
func NewAmendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransitionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "amend <subject>",
		Short: "Replace a published test result",
		Long: `Replace the test result the caller published for a subject.

The new tester label and outcome replace the old record entirely.
Fails with NOT_FOUND if the caller never published for the subject.

Example:
  labledger amend patient-42 --caller C1 --tester lab-B --positive=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(cmd, opts, ledger.OpAmend, args[0])
		},
	}
	addTransitionFlags(cmd, opts)
	return cmd
}

func addTransitionFlags(cmd *cobra.Command, opts *TransitionOptions) {
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "signing caller identity (required)")
	cmd.Flags().StringVar(&opts.Tester, "tester", "", "tester label")
	cmd.Flags().BoolVar(&opts.Positive, "positive", false, "the test was positive")
	_ = cmd.MarkFlagRequired("caller")
}

func runTransition(cmd *cobra.Command, opts *TransitionOptions, op ledger.Op, subject string) error {
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
	if s.cfg.Store.Driver == config.DriverMemory {
		s.logger.Warn("memory driver: records are discarded when the command exits")
	}

	origin := ledger.Signed(ledger.Identity(opts.Caller))
	sub := ledger.Submission{
		Subject:  []byte(subject),
		Tester:   []byte(opts.Tester),
		Positive: opts.Positive,
	}

	var n ledger.Notice
	switch op {
	case ledger.OpPublish:
		n, err = s.handler.Publish(ctx, origin, sub)
	default:
		n, err = s.handler.Amend(ctx, origin, sub)
	}
	if err != nil {
		return f.Rejected(err)
	}

	p := n.Event.Fields()
	f.VerboseLog("notice %s seq=%d", n.ID, n.Seq)
	return f.Success(n, fmt.Sprintf("%s %s tester=%q positive=%t",
		n.Event.Kind(), p.Key, p.Tester, p.Positive))
}
