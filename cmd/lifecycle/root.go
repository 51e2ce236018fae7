package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

var version = "dev"

var (
	cfgFile   string
	logLevel  string
	logFormat string
	platform  string
	reporter  string
)

var rootCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "Drives cloud resources through their lifecycles and reports the outcome.",
	Long: `lifecycle creates volumes, snapshots, instances and machine images on a
cloud platform (AWS, Incus or an in-memory simulation), waits for each to reach
the expected state, exercises it, and tears it down again.

Workflows come from the configuration file and from HCL plans.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .cloud-lifecycle.yaml in . or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&platform, "platform", "", "Override the platform (aws, incus, memory)")
	rootCmd.PersistentFlags().StringVar(&reporter, "reporter", "", "Override the report format (text, json, yaml)")

	_ = viper.BindPFlag("settings.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("settings.log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("platform.type", rootCmd.PersistentFlags().Lookup("platform"))
	_ = viper.BindPFlag("settings.reporter", rootCmd.PersistentFlags().Lookup("reporter"))

	viper.SetEnvPrefix("LIFECYCLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(runCmd, waitCmd, versionCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if cmd == versionCmd {
		return nil
	}
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".cloud-lifecycle")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError, "failed to read config file",
				"Check that the configuration file exists and is valid YAML.")
		}
	}
	return nil
}

func printError(w io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "ERROR: interrupted")
		return
	}
	fmt.Fprintf(w, "ERROR: %v\n", err)
	if msg, suggestion, ok := apperrors.GetUserFacingMessage(err); ok {
		fmt.Fprintf(w, "Error Details: %s\n", msg)
		if suggestion != "" {
			fmt.Fprintf(w, "Suggestion: %s\n", suggestion)
		}
	}
}
