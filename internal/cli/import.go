package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/nestdoc/internal/value"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Key string // store the whole file under one key
}

// ImportResult is the success payload of import.
type ImportResult struct {
	Keys []string `json:"keys"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <yaml-file>",
		Short: "Store documents from a YAML file",
		Long: `Store documents from a YAML file.

By default the file's top level must be a mapping: each entry is stored as
a document under its name, replacing existing records. With --key the whole
file is stored as one document.

Examples:
  nestdoc import users.yaml
  nestdoc import settings.yaml --key app:settings`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "store the whole file under this key")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}

	f := opts.formatter(cmd)
	doc, err := value.FromYAML(data)
	if err != nil {
		return f.Fail(fmt.Errorf("%s: %w", path, err))
	}

	var docs value.Object
	if opts.Key != "" {
		docs = value.Object{opts.Key: doc}
	} else {
		obj, ok := doc.(value.Object)
		if !ok {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("%s: top level is %s, want a mapping of key to document (or use --key)", path, doc.Kind()))
		}
		docs = obj
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	keys := docs.SortedKeys()
	for _, key := range keys {
		if err := st.Put(ctx, key, docs[key]); err != nil {
			return f.Fail(err)
		}
		f.VerboseLog("imported %s", key)
	}

	if f.Format == "json" {
		return f.Success(ImportResult{Keys: keys})
	}
	return f.Success(fmt.Sprintf("imported %d document(s)", len(keys)))
}
