package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/startupverse/dashboard/cmd/dashboard/internal/guard"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route guard table",
	Long:  `Prints every guarded route in match order with the roles allowed to open it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := guard.New(guard.DefaultRoutes())
		if err != nil {
			return err
		}

		table := pterm.TableData{{"PATH", "TITLE", "ROLES", "NAV"}}
		for _, rd := range g.Routes() {
			roles := "public"
			if !rd.Public() {
				names := make([]string, len(rd.AllowedRoles))
				for i, role := range rd.AllowedRoles {
					names[i] = role.String()
				}
				roles = strings.Join(names, ", ")
			}
			nav := ""
			if rd.Nav {
				nav = "yes"
			}
			table = append(table, []string{rd.Path, rd.Title, roles, nav})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
