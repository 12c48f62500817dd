package main

import (
	"fmt"

	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow-file]",
	Short: "Check a flow definition for consistency",
	Long:  `Parses the flow and reports every structural defect: duplicate ids, dangling next references, empty choices and unknown step kinds. Unreachable steps are reported as warnings.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.FlowPath
		if len(args) > 0 {
			path = args[0]
		}
		out := cmd.OutOrStdout()

		def, err := flow.Load(path)
		if err != nil {
			if errs := flow.ValidationErrors(err); len(errs) > 0 {
				fmt.Fprintf(out, "Validation failed: %d problem(s) in %s\n", len(errs), path)
				for _, e := range errs {
					fmt.Fprintf(out, "  - %v\n", e)
				}
				return fmt.Errorf("invalid flow")
			}
			return err
		}

		for _, w := range def.Warnings() {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
		fmt.Fprintf(out, "Flow is valid! ✅ (%d steps, start %q)\n", len(def.Steps()), def.Start())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
