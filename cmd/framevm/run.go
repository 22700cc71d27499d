package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cloudcmds/framevm/builtins"
	"github.com/cloudcmds/framevm/vm"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a code object and print its result",
		Example: `  framevm run examples/fib.yaml
  framevm run --set n=20 -o json examples/fib.yaml
  framevm run --trace build/fib.cbor`,
		Args: cobra.ExactArgs(1),
		RunE: runHandler,
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output format (json or text)")
	flags.Int("max-depth", vm.DefaultMaxFrameDepth, "Maximum call depth")
	flags.Bool("trace", false, "Trace every executed instruction to stderr")
	flags.StringArray("set", nil, "Set a global variable (name=value, value parsed as YAML)")
	cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("max-depth", flags.Lookup("max-depth"))
	viper.BindPFlag("trace", flags.Lookup("trace"))
	return cmd
}

func runHandler(cmd *cobra.Command, args []string) error {
	code, err := loadCode(args[0])
	if err != nil {
		return err
	}
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}
	globals, err := parseGlobals(sets)
	if err != nil {
		return err
	}

	opts := []vm.Option{
		vm.WithBuiltins(builtins.New(cmd.OutOrStdout())),
		vm.WithGlobals(globals),
		vm.WithLogger(newLogger(cmd.ErrOrStderr())),
		vm.WithMaxFrameDepth(viper.GetInt("max-depth")),
	}
	if viper.GetBool("trace") {
		opts = append(opts, vm.WithObserver(newTracer(cmd.ErrOrStderr())))
	}
	machine, err := vm.New(code, opts...)
	if err != nil {
		return err
	}
	result, err := machine.Run(context.Background())
	if err != nil {
		return err
	}
	output, err := getOutput(result, viper.GetString("output"))
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}

// parseGlobals turns name=value assignments into global variables. Values are
// YAML scalars or flow collections, so "3" is an int and "[1, 2]" a list.
func parseGlobals(assignments []string) (map[string]any, error) {
	globals := make(map[string]any, len(assignments))
	for _, assignment := range assignments {
		name, raw, ok := strings.Cut(assignment, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid global %q (expected name=value)", assignment)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for global %q: %w", name, err)
		}
		globals[name] = value
	}
	return globals, nil
}
