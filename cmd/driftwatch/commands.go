package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hive-corporation/driftwatch/internal/adapter/exporter"
	"github.com/hive-corporation/driftwatch/internal/core/domain"
)

func newAdjustCmd(state *cliState) *cobra.Command {
	var (
		templateID string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "adjust [technique-id...]",
		Short: "Normalize a list of technique IDs against the loaded knowledge base",
		Long: `Resolves every ID to its current state: active IDs are kept, revoked IDs
are replaced by the technique that supersedes them, and deprecated or unknown
IDs are dropped. With --template, the template's live techniques are merged in.

Example:
  driftwatch adjust T1086 T1059 T1064 --template ransomware`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := state.load(cmd.Context())
			if err != nil {
				return err
			}

			var result domain.AdjustmentResult
			if templateID == "" {
				result = session.AdjustTechniques(args)
			} else {
				result, err = session.SeedFromTemplate(args, templateID)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeIndentedJSON(out, result)
			}
			if err := writeAdjustments(out, result.Adjustments); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n✅ %d live technique(s): %v\n", len(result.IDs), result.IDs)
			return nil
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "merge in the techniques of this template")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newStatusCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status [technique-id]",
		Short: "Show the resolved status of one technique",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := state.load(cmd.Context())
			if err != nil {
				return err
			}

			id := args[0]
			status := session.Status(id)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%s\t%s", id, status.Kind(), status.Name().Display())
			if revoked, ok := status.(domain.RevokedStatus); ok {
				fmt.Fprintf(out, "\t→ %s", revoked.By)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newReportCmd(state *cliState) *cobra.Command {
	var (
		format           string
		includeUnchanged bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export the dataset adjustment report",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := exporter.ForFormat(format)
			if err != nil {
				return err
			}

			session, err := state.load(cmd.Context())
			if err != nil {
				return err
			}

			data, err := exp.Export(session.Report(includeUnchanged))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "report format: json, csv or cef")
	cmd.Flags().BoolVar(&includeUnchanged, "include-unchanged", false, "include unchanged rows")
	return cmd
}

func writeAdjustments(w io.Writer, adjustments []domain.TechAdjustment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tREASON\tREPLACED BY")
	for _, adj := range adjustments {
		replacedBy := ""
		if adj.ReplacedBy != nil {
			replacedBy = fmt.Sprintf("%s (%s)", adj.ReplacedBy.ID, adj.ReplacedBy.Name.Display())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", adj.ID, adj.Status, adj.Reason, replacedBy)
	}
	return tw.Flush()
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
