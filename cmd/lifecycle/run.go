package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-lifecycle/internal/app"
)

var runOpts app.RunOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured and planned workflows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		application, err := app.BuildApplicationFromViper(ctx, viper.GetViper(),
			app.WithOutput(cmd.OutOrStdout()), app.WithVersion(version))
		if err != nil {
			return err
		}
		defer func() {
			if err := application.Close(ctx); err != nil {
				application.Logger.Warnf(ctx, "Failed to flush traces: %v", err)
			}
		}()

		_, err = application.Run(ctx, runOpts)
		return err
	},
}

func init() {
	runCmd.Flags().StringVarP(&runOpts.PlanPath, "plan", "p", "", "HCL plan file or directory of plan files")
	runCmd.Flags().StringArrayVar(&runOpts.Vars, "var", nil, "Set a plan variable (name=value); repeatable")
	runCmd.Flags().StringSliceVar(&runOpts.Only, "only", nil, "Run only the named workflows")
}
