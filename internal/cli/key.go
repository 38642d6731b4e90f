package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/labledger/internal/ledger"
)

// KeyOptions holds flags for the key command.
type KeyOptions struct {
	*RootOptions
	Caller   string
	Sequence int64
}

// KeyView is the output form of a derived key.
type KeyView struct {
	Subject  string `json:"subject"`
	Caller   string `json:"caller"`
	Sequence int64  `json:"sequence"`
	Key      string `json:"key"`
}

// NewKeyCommand creates the key command.
func NewKeyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "key <subject>",
		Short: "Derive the record key for a subject and caller",
		Long: `Derive the key a publish or amend by caller on subject would address.

Derivation needs no store; the same inputs always give the same key.
Transitions always use sequence 0; --sequence derives other slots.

Examples:
  labledger key patient-42 --caller C1
  labledger key patient-42 --caller C1 --sequence 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd, opts.RootOptions)
			if err := ledger.Signed(ledger.Identity(opts.Caller)).Verify(ledger.OpDerive); err != nil {
				return f.Rejected(err)
			}
			key, err := ledger.NewDeriver(nil).Derive([]byte(args[0]), ledger.Identity(opts.Caller), opts.Sequence)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to derive key", err)
			}
			view := KeyView{
				Subject:  args[0],
				Caller:   opts.Caller,
				Sequence: opts.Sequence,
				Key:      key.String(),
			}
			return f.Print(view, key.String()+"\n")
		},
	}

	cmd.Flags().StringVar(&opts.Caller, "caller", "", "caller identity (required)")
	cmd.Flags().Int64Var(&opts.Sequence, "sequence", ledger.FixedSequence, "derivation sequence")
	_ = cmd.MarkFlagRequired("caller")

	return cmd
}
