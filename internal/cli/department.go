package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/services"
	"github.com/yigit/uniportal/internal/bootstrap"
)

func newDepartmentCommand(a *app) *cobra.Command {
	departmentCmd := &cobra.Command{
		Use:   "department",
		Short: "Manage departments",
	}

	var name, code string
	addCmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a department",
		Long:    "Creates a department. The code prefixes the roll numbers issued to its students.",
		Example: `  portalctl department add --name "Software Engineering" --code SE`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStorage(cmd.Context(), func(storage *bootstrap.Storage) error {
				dept := &models.Department{Name: name, Code: code}
				if err := services.NewDepartmentService(storage.Repos.Departments).CreateDepartment(cmd.Context(), dept); err != nil {
					return err
				}
				a.lgr.Info().Int64("departmentId", dept.ID).Str("code", dept.Code).Msg("Department created")
				fmt.Fprintf(cmd.OutOrStdout(), "department %s created with id %d\n", dept.Code, dept.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Department name")
	addCmd.Flags().StringVar(&code, "code", "", "Department code, letters and digits")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("code")

	departmentCmd.AddCommand(addCmd)
	return departmentCmd
}
