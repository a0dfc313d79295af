package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/validate/internal/checks"
)

func newGroupsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List the check groups",
		Long: `List the groups that can be passed to -g.

Default groups run when no group is given. Optional groups run only when
requested by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups := newRegistry().Groups()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(groups)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "GROUP\tRUNS\tCHECKS")
			for _, g := range groups {
				runs := "default"
				if !g.Default {
					runs = "on request"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", g.Name, runs, g.Checks)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// newRegistry builds the registry the commands run.
var newRegistry = checks.Default
