// Command importjs-exec sends a single command to an import-js daemon and prints the raw response line.
// It resolves the daemon environment the same way the bridge does, without an editor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "importjs-exec <command> <file>",
		Short: "Run one import-js command against a file",
		Long: `Run one import-js command against a file and print the daemon's response line.

The daemon is started with the same environment the bridge would use for it,
in the project root of the file unless --scope is given. Supported commands:
  word     import --word
  goto     print the module --word is imported from
  fix      import every undefined variable and remove unused imports
  rewrite  reorder and reformat the imports
  add      import the word -> data mapping given with --imports`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args[0], args[1], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.word, "word", "w", "", "Word to import or look up (word and goto)")
	cmd.Flags().StringVar(&opts.imports, "imports", "", "JSON object mapping words to candidate data (add)")
	cmd.Flags().StringVar(&opts.scope, "scope", "", "Working directory of the daemon (default: project root of the file)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", _defaultTimeout, "Time to wait for the daemon's response")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")
	return cmd
}
