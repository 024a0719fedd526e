package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autopeer-io/cpeer-report/internal/pkg/anonymize"
	"github.com/autopeer-io/cpeer-report/internal/report"
)

func newAnonymizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "anonymize FILE...",
		Short: "Mask identifying values in state documents",
		Long: `Print each vehicle state document with VINs, license plates, positions and
contact details replaced, so that it can be attached to a bug report. Use "-"
to read a document from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			for _, path := range args {
				data, err := readInput(path, cmd.InOrStdin())
				if err != nil {
					return err
				}
				doc, err := report.DecodeDocument(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := enc.Encode(anonymize.Data(map[string]any(doc))); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
