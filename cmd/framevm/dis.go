package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cloudcmds/framevm/bytecode"
	"github.com/cloudcmds/framevm/dis"
)

var headingColor = color.New(color.Bold)

func newDisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <file>",
		Short: "Disassemble a code object and its nested functions",
		Args:  cobra.ExactArgs(1),
		RunE:  disHandler,
	}
	cmd.Flags().String("func", "", "Disassemble only the code objects with this name")
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	code, err := loadCode(args[0])
	if err != nil {
		return err
	}
	funcName, err := cmd.Flags().GetString("func")
	if err != nil {
		return err
	}
	var selected []*bytecode.Code
	for _, c := range code.Flatten() {
		if funcName == "" || c.Name() == funcName {
			selected = append(selected, c)
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("function not found: %s", funcName)
	}
	out := cmd.OutOrStdout()
	for i, c := range selected {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, headingColor.Sprintf("code object %s (%s)", c.Name(), describeParams(c)))
		instructions, err := dis.Disassemble(c)
		if err != nil {
			return err
		}
		if err := dis.Print(instructions, out); err != nil {
			return err
		}
	}
	return nil
}

func describeParams(c *bytecode.Code) string {
	posOnly, posOrKw, kwOnly := c.ParamNames()
	var params []string
	params = append(params, posOnly...)
	if len(posOnly) > 0 {
		params = append(params, "/")
	}
	params = append(params, posOrKw...)
	if name := c.VarArgsName(); name != "" {
		params = append(params, "*"+name)
	} else if len(kwOnly) > 0 {
		params = append(params, "*")
	}
	params = append(params, kwOnly...)
	if name := c.VarKeywordsName(); name != "" {
		params = append(params, "**"+name)
	}
	s := "params: "
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	if len(params) == 0 {
		s += "none"
	}
	return s
}
