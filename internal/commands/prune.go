package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dryRun bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete uploaded files no record refers to",
	Long: `Walk the upload root and delete every file that no category icon,
channel icon or channel banner refers to. Run it while the server is stopped,
an upload that is not committed yet looks orphaned.

Examples:
  chatapp prune --dry-run   # List the orphaned files only
  chatapp prune             # Delete them`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		orphans, err := env.store.PruneOrphans(cmd.Context(), dryRun)
		for _, name := range orphans {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		if err != nil {
			return err
		}

		verb := "Deleted"
		if dryRun {
			verb = "Found"
		}
		env.sugar.Infof("%s %d orphaned files", verb, len(orphans))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphaned files without deleting them")
}
