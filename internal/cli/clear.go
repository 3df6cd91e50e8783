package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearQuietFlag bool

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all symbols, call edges and cached chains",
	Long: `Clear empties the database and resets the generation to empty.
The configuration file (.callgraph/config.yml) is preserved.

Examples:
  callgraph clear
  callgraph clear --quiet
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openProject()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ClearAll(cmd.Context()); err != nil {
			return err
		}
		if !clearQuietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s\n", store.Path())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearQuietFlag, "quiet", "q", false, "Suppress output messages")
}
