package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/cloudcmds/framevm/builtins"
)

func newBuiltinsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builtins [name]",
		Short: "List the builtin functions available to code objects",
		Args:  cobra.MaximumNArgs(1),
		RunE:  builtinsHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (json or text)")
	return cmd
}

func builtinsHandler(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	docs := builtins.Docs()
	if len(args) > 0 {
		var found []builtins.FuncSpec
		for _, spec := range docs {
			if spec.Name == args[0] {
				found = append(found, spec)
			}
		}
		if len(found) == 0 {
			return fmt.Errorf("builtin not found: %s", args[0])
		}
		docs = found
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "json":
		var data []byte
		if color.NoColor {
			data, err = json.MarshalIndent(docs, "", "  ")
		} else {
			data, err = prettyjson.Marshal(docs)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "text":
		for _, spec := range docs {
			signature := fmt.Sprintf("%s(%s)", spec.Name, strings.Join(spec.Args, ", "))
			fmt.Fprintf(out, "%s -> %s\n", headingColor.Sprint(signature), spec.Returns)
			fmt.Fprintf(out, "    %s\n", spec.Doc)
			if spec.Example != "" {
				fmt.Fprintf(out, "    example: %s\n", spec.Example)
			}
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
	return nil
}
