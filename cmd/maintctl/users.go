package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	userservice "device-maintenance/backend/internal/user/service"
)

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users and manage their access",
	}
	cmd.AddCommand(c.usersListCmd(), c.usersGrantCmd())
	return cmd
}

func (c *cli) usersListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users with their effective capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			views, err := c.backend.Users.List(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), views)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tROLE\tNOTE\tMAINTENANCE\tREPORT\tPERMISSIONS")
			for _, v := range views {
				caps := v.Capabilities
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Username, v.Role,
					yesNo(caps.AddNote), yesNo(caps.AddMaintenance), yesNo(caps.GenerateReport), yesNo(caps.ManagePermissions))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *cli) usersGrantCmd() *cobra.Command {
	var (
		role  string
		reset bool
		flags = map[string]*string{}
	)
	cmd := &cobra.Command{
		Use:   "grant <username>",
		Short: "Change a user's role or capability overrides",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := userservice.AccessPatch{ResetPermissions: reset}
			if cmd.Flags().Changed("role") {
				patch.Role = &role
			}
			targets := map[string]**bool{
				"add-note":           &patch.AddNote,
				"add-maintenance":    &patch.AddMaintenance,
				"generate-report":    &patch.GenerateReport,
				"manage-permissions": &patch.ManagePermissions,
			}
			for name, dst := range targets {
				if !cmd.Flags().Changed(name) {
					continue
				}
				b, err := strconv.ParseBool(*flags[name])
				if err != nil {
					return fmt.Errorf("--%s: %w", name, err)
				}
				*dst = &b
			}

			ctx, err := c.identity(cmd.Context())
			if err != nil {
				return err
			}
			view, err := c.backend.Users.UpdateAccess(ctx, args[0], patch)
			if err != nil {
				return err
			}
			c.audit(ctx, "user_access_updated", "user", map[string]string{"username": args[0]})
			return printJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "new role (admin, auditor, user)")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset overrides to the role defaults")
	for _, name := range []string{"add-note", "add-maintenance", "generate-report", "manage-permissions"} {
		flags[name] = cmd.Flags().String(name, "", "grant (true) or revoke (false) "+name)
	}
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
