package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// KeysOptions holds flags for the keys command.
type KeysOptions struct {
	*RootOptions
	Prefix string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <path> <json-value>",
		Short: "List documents whose value at a path equals a JSON value",
		Long: `List every document whose value at path equals the given JSON value.

Equality is JSON equality: numbers compare numerically, objects and arrays
compare structurally. Results are ordered by key.

Examples:
  nestdoc query '$.address.city' '"Springfield"'
  nestdoc query '$.active' true
  nestdoc query '$.tags' '["a","b"]' --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runQuery(opts *RootOptions, path, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	want, err := parseDocument(arg)
	if err != nil {
		return f.Fail(err)
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.QueryPath(cmd.Context(), path, want)
	if err != nil {
		return f.Fail(err)
	}
	return writeRecords(f, records)
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "List documents whose serialized text contains a term",
		Long: `List every document whose stored JSON text contains term as a
substring. ASCII letters match either case; % and _ are literal. Keys and syntax characters are part of the text,
so a term may match a member name as well as a value.

Examples:
  nestdoc search photography
  nestdoc search '"city":"Springfield"'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSearch(opts *RootOptions, term string, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	records, err := st.SearchText(cmd.Context(), term)
	if err != nil {
		return f.Fail(err)
	}
	return writeRecords(f, records)
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		Long: `List stored keys in ascending order, optionally only those
starting with --prefix.

Examples:
  nestdoc keys
  nestdoc keys --prefix user:`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only keys starting with prefix")

	return cmd
}

func runKeys(opts *KeysOptions, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	keys, err := st.Keys(cmd.Context(), opts.Prefix)
	if err != nil {
		return f.Fail(err)
	}

	if f.Format == "json" {
		return f.Success(keys)
	}
	if len(keys) == 0 {
		f.VerboseLog("no keys")
		return nil
	}
	return f.Success(strings.Join(keys, "\n"))
}
