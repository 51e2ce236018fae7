package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-lifecycle/internal/app"
)

var waitReq app.WaitRequest

var waitCmd = &cobra.Command{
	Use:   "wait <kind> <id>",
	Short: "Wait for an existing resource to reach a state",
	Long: `Polls one resource until it reaches a target state. Without --target the
resource's ready states are used (e.g. running for instances, available for
volumes). Kinds are instance, image, volume and snapshot.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		application, err := app.BuildApplicationFromViper(ctx, viper.GetViper(),
			app.WithOutput(cmd.OutOrStdout()), app.WithVersion(version))
		if err != nil {
			return err
		}
		defer func() { _ = application.Close(ctx) }()

		req := waitReq
		req.Kind, req.ID = args[0], args[1]
		state, err := application.Wait(ctx, req)
		if state != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", req.Kind, req.ID, state)
		}
		return err
	},
}

func init() {
	waitCmd.Flags().StringSliceVar(&waitReq.Target, "target", nil, "States that end the wait successfully")
	waitCmd.Flags().StringSliceVar(&waitReq.Terminal, "terminal", nil, "States that end the wait with an error (needs --target)")
	waitCmd.Flags().DurationVar(&waitReq.Timeout, "timeout", 0, "Give up after this long (0 uses the configured default)")
	waitCmd.Flags().DurationVar(&waitReq.Interval, "interval", 0, "Poll interval (0 uses the configured default)")
}
