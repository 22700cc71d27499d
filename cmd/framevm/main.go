package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cloudcmds/framevm/errz"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "framevm",
		Short: "Execute and inspect stack-machine code objects",
		Long: `framevm runs code objects on a frame-based stack virtual machine.

Code objects are read from YAML listings (.yaml, .yml) or from CBOR
artifacts (.cbor) produced by "framevm compile".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			processGlobalFlags()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is framevm.{yaml,toml,json} in the working or home directory)")
	pf.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	pf.Bool("no-color", false, "Disable colored output")
	viper.BindPFlag("log-level", pf.Lookup("log-level"))
	viper.BindPFlag("no-color", pf.Lookup("no-color"))

	root.AddCommand(
		newRunCommand(),
		newDisCommand(),
		newOpsCommand(),
		newCompileCommand(),
		newBuiltinsCommand(),
		newVersionCommand(),
	)
	return root
}

func initConfig() {
	viper.SetEnvPrefix("framevm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("framevm")
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fatal(fmt.Errorf("failed to read config: %w", err))
		}
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "framevm %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCommand().Execute(); err != nil {
		var fault *errz.Fault
		if errors.As(err, &fault) {
			fmt.Fprint(os.Stderr, fault.FriendlyErrorMessage())
			os.Exit(1)
		}
		fatal(err)
	}
}
