package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiuml/api/internal/analysis"
	"github.com/aiuml/api/internal/config"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram [file|-]",
	Short: "Print a diagram for requirements or source code",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		svc, cfg, err := pipeline()
		if err != nil {
			return err
		}

		kind, _ := cmd.Flags().GetString("kind")
		notation, _ := cmd.Flags().GetString("notation")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PipelineTimeout)
		defer cancel()

		d, err := svc.Diagram(ctx, analysis.Request{Requirements: input, Kind: kind, Notation: notation})
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, d)
		}
		if d.Degraded {
			cmd.PrintErrf("generation failed: %s\n", d.Failure)
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.Document)
		return nil
	},
}

var patternsCmd = &cobra.Command{
	Use:   "patterns [file|-]",
	Short: "Suggest design patterns for requirements",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		svc, cfg, err := pipeline()
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PipelineTimeout)
		defer cancel()

		out, err := svc.Patterns(ctx, input)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, out)
		}
		if out.Fallback {
			cmd.PrintErrln("no patterns detected, showing defaults")
		}
		for _, p := range out.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.Name, p.Explanation)
		}
		return nil
	},
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the API variant and model pairs in the order they are tried",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for i, c := range cfg.Candidates {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, c)
		}
		return nil
	},
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	diagramCmd.Flags().String("kind", "class", "diagram kind (class, sequence, usecase)")
	diagramCmd.Flags().String("notation", "", "output notation (mermaid, plantuml); defaults to DIAGRAM_NOTATION")
	diagramCmd.Flags().Bool("json", false, "print the full result as JSON")
	patternsCmd.Flags().Bool("json", false, "print the full result as JSON")

	rootCmd.AddCommand(diagramCmd, patternsCmd, candidatesCmd)
}
