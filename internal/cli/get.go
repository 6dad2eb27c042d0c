package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Digest bool // print record metadata instead of the document
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the document stored under a key",
		Long: `Print the document stored under a key as canonical JSON.

With --digest, print the record's size, creation time and the SHA-256
digest of its canonical form instead.

Exit codes:
  0 - Document printed
  1 - No document under key
  2 - Command error

Examples:
  nestdoc get user:1
  nestdoc get user:1 --digest --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "print size, creation time and digest")

	return cmd
}

func runGet(opts *GetOptions, key string, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Digest {
		stat, err := st.Stat(ctx, key)
		if err != nil {
			return f.Fail(err)
		}
		if f.Format == "json" {
			return f.Success(stat)
		}
		return f.Success(fmt.Sprintf("%s\t%d\t%s\t%s",
			stat.Key, stat.Size, stat.CreatedAt.UTC().Format(time.RFC3339), stat.Digest))
	}

	doc, err := st.Get(ctx, key)
	if err != nil {
		return f.Fail(err)
	}
	return writeValue(f, doc)
}
