package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/uniportal/internal/app/services"
	"github.com/yigit/uniportal/internal/bootstrap"
)

func newCoordinatorCommand(a *app) *cobra.Command {
	coordinatorCmd := &cobra.Command{
		Use:   "coordinator",
		Short: "Manage department coordinators",
	}

	var subject, department, name string
	addCmd := &cobra.Command{
		Use:     "add",
		Short:   "Assign a subject as coordinator of a department",
		Long:    "Creates or reactivates a coordinator. Running it again moves the subject to the given department.",
		Example: `  portalctl coordinator add --subject coord-cs --department CS --name "Dr. Sana Malik"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd.Context(), func(storage *bootstrap.Storage) error {
				svc := services.NewCoordinatorService(storage.Repos.Coordinators, storage.Repos.Departments)
				c, err := svc.Assign(cmd.Context(), subject, name, department)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "coordinator %s assigned to department %d\n", c.Subject, c.DepartmentID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&subject, "subject", "", "Token subject of the coordinator")
	addCmd.Flags().StringVar(&department, "department", "", "Department code")
	addCmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = addCmd.MarkFlagRequired("subject")
	_ = addCmd.MarkFlagRequired("department")

	var deactivateSubject string
	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Revoke a coordinator's review rights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd.Context(), func(storage *bootstrap.Storage) error {
				svc := services.NewCoordinatorService(storage.Repos.Coordinators, storage.Repos.Departments)
				if err := svc.Deactivate(cmd.Context(), deactivateSubject); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "coordinator %s deactivated\n", deactivateSubject)
				return nil
			})
		},
	}
	deactivateCmd.Flags().StringVar(&deactivateSubject, "subject", "", "Token subject of the coordinator")
	_ = deactivateCmd.MarkFlagRequired("subject")

	coordinatorCmd.AddCommand(addCmd, deactivateCmd)
	return coordinatorCmd
}
