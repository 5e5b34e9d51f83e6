package commands

import (
	"os"

	"github.com/dyluth/modcat/internal/printer"
	"github.com/dyluth/modcat/internal/scaffold"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter modcat.yml",
	Long: `Write a commented modcat.yml into the current directory.

module_path is taken from MODULEPATH when it is set. The generated file is
loaded back and validated before the command succeeds. --resource-name, when
given, is written as resource_name.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := scaffold.Initialize(".", scaffold.Options{
		Force:        initForce,
		ModulePath:   os.Getenv("MODULEPATH"),
		ResourceName: settings.GetString("resource_name"),
	})
	if err != nil {
		return printer.Error(
			"initialization failed",
			err.Error(),
			nil,
		)
	}

	scaffold.PrintSuccess(cmd.OutOrStdout(), path)
	return nil
}
