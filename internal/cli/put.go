package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/nestdoc/internal/value"
)

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	File        string // read the document from a file, "-" for stdin
	YAML        bool   // parse the document as YAML
	GenerateKey bool   // store under a generated key
}

// PutResult is the success payload of put.
type PutResult struct {
	Key string `json:"key"`
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put [key] [json]",
		Short: "Store a document under a key",
		Long: `Store a document under a key, replacing any existing record.

The document is given as a JSON argument, or read from --file. With --yaml
the input is parsed as YAML and stored as the equivalent JSON. With
--generate-key no key argument is taken and a fresh key is printed.

Examples:
  nestdoc put user:1 '{"name":"Alice","address":{"city":"Springfield"}}'
  nestdoc put user:2 --file bob.json
  nestdoc put user:3 --yaml --file carol.yaml
  nestdoc put --generate-key '{"note":"hello"}'`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the document from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "parse the document as YAML")
	cmd.Flags().BoolVar(&opts.GenerateKey, "generate-key", false, "store under a generated key")

	return cmd
}

func runPut(opts *PutOptions, args []string, cmd *cobra.Command) error {
	key, input, err := putArgs(opts, args, cmd)
	if err != nil {
		return err
	}

	f := opts.formatter(cmd)
	doc, err := decodeInput(input, opts.YAML)
	if err != nil {
		return f.Fail(err)
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.GenerateKey {
		key, err = st.Add(ctx, doc)
	} else {
		err = st.Put(ctx, key, doc)
	}
	if err != nil {
		return f.Fail(err)
	}

	f.VerboseLog("stored %s", key)
	if f.Format == "json" {
		return f.Success(PutResult{Key: key})
	}
	return f.Success(key)
}

// putArgs splits the positional arguments and loads the document text.
func putArgs(opts *PutOptions, args []string, cmd *cobra.Command) (key string, input []byte, err error) {
	wantKey := 1
	if opts.GenerateKey {
		wantKey = 0
	}
	if len(args) < wantKey {
		return "", nil, NewExitError(ExitCommandError, "missing key argument")
	}
	if wantKey == 1 {
		key = args[0]
	}
	rest := args[wantKey:]

	switch {
	case len(rest) > 1:
		return "", nil, NewExitError(ExitCommandError, "too many arguments (--generate-key takes no key)")
	case opts.File != "" && len(rest) > 0:
		return "", nil, NewExitError(ExitCommandError, "give the document either as an argument or with --file, not both")
	case opts.File == "-":
		input, err = io.ReadAll(cmd.InOrStdin())
	case opts.File != "":
		input, err = os.ReadFile(opts.File)
	case len(rest) == 1:
		input = []byte(rest[0])
	default:
		return "", nil, NewExitError(ExitCommandError, "missing document argument")
	}
	if err != nil {
		return "", nil, WrapExitError(ExitCommandError, "failed to read document", err)
	}
	return key, input, nil
}

// decodeInput parses JSON or, with asYAML, YAML text.
func decodeInput(input []byte, asYAML bool) (value.Value, error) {
	if asYAML {
		v, err := value.FromYAML(input)
		if err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return v, nil
	}
	return parseDocument(string(input))
}
