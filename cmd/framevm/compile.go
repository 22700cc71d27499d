package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudcmds/framevm/bytecode"
)

func newCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <listing.yaml>",
		Short: "Assemble a YAML listing into a CBOR artifact",
		Args:  cobra.ExactArgs(1),
		RunE:  compileHandler,
	}
	cmd.Flags().StringP("out", "o", "", "Output path (default: input path with a .cbor extension)")
	return cmd
}

func compileHandler(cmd *cobra.Command, args []string) error {
	in := args[0]
	if ext := strings.ToLower(filepath.Ext(in)); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("compile expects a .yaml listing, got %s", in)
	}
	code, err := loadCode(in)
	if err != nil {
		return err
	}
	if err := code.Validate(); err != nil {
		return err
	}
	data, err := bytecode.Marshal(code)
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".cbor"
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
	return nil
}
