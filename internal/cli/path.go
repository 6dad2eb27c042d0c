package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"
)

// PathOptions holds flags shared by extract and len.
type PathOptions struct {
	*RootOptions
	Strict bool // fail instead of returning the lenient result
}

// ExtractResult is the JSON payload of extract.
type ExtractResult struct {
	Present bool            `json:"present"`
	Value   json.RawMessage `json:"value,omitempty"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <path> <json-value>",
		Short: "Replace the value at a path inside a stored document",
		Long: `Replace the value at path inside the document stored under key.

Missing object members along the path are created. [#] appends to an
array. The document must already exist.

Examples:
  nestdoc set user:1 '$.address.city' '"Shelbyville"'
  nestdoc set user:1 '$.tags[#]' '"new"'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(rootOpts, args[0], args[1], args[2], cmd)
		},
	}
	return cmd
}

func runSet(opts *RootOptions, key, path, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	v, err := parseDocument(arg)
	if err != nil {
		return f.Fail(err)
	}

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpdatePath(cmd.Context(), key, path, v); err != nil {
		return f.Fail(err)
	}

	f.VerboseLog("updated %s at %s", key, path)
	if f.Format == "json" {
		return f.Success(map[string]string{"key": key, "path": path})
	}
	return f.Success(key)
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <key> <path>",
		Short: "Print the value at a path inside a stored document",
		Long: `Print the value at path inside the document stored under key.

An absent path prints nothing in text mode and {"present":false} in JSON
mode. With --strict an absent path is an error (exit code 1).

Examples:
  nestdoc extract user:1 '$.address.city'
  nestdoc extract user:1 '$.tags[#-1]' --strict`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the path is absent")

	return cmd
}

func runExtract(opts *PathOptions, key, path string, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	ctx := cmd.Context()

	if opts.Strict {
		v, err := st.ExtractPathStrict(ctx, key, path)
		if err != nil {
			return f.Fail(err)
		}
		return writeValue(f, v)
	}

	v, present, err := st.ExtractPath(ctx, key, path)
	if err != nil {
		return f.Fail(err)
	}
	if f.Format == "json" {
		res := ExtractResult{Present: present}
		if present {
			data, err := canonical(v)
			if err != nil {
				return f.Fail(err)
			}
			res.Value = data
		}
		return f.Success(res)
	}
	if !present {
		f.VerboseLog("path %s not present in %s", path, key)
		return nil
	}
	return writeValue(f, v)
}

// NewLenCommand creates the len command.
func NewLenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "len <key> <path>",
		Short: "Print the length of the array at a path",
		Long: `Print the number of elements of the array at path inside the
document stored under key.

A path that is absent or not an array prints 0, unless --strict or the
strict_array_length setting is on, in which case it is an error.

Examples:
  nestdoc len user:1 '$.hobbies'
  nestdoc len user:1 '$.name' --strict`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLen(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the path is absent or not an array")

	return cmd
}

func runLen(opts *PathOptions, key, path string, cmd *cobra.Command) error {
	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	f := opts.formatter(cmd)
	ctx := cmd.Context()

	var n int
	if opts.Strict {
		n, err = st.ArrayLengthStrict(ctx, key, path)
	} else {
		n, err = st.ArrayLength(ctx, key, path)
	}
	if err != nil {
		return f.Fail(err)
	}

	if f.Format == "json" {
		return f.Success(n)
	}
	return f.Success(strconv.Itoa(n))
}
