package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/cpeer-report/internal/report"
	"github.com/autopeer-io/cpeer-report/internal/vehicle"
	"github.com/autopeer-io/cpeer-report/pkg/log"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type deriveOptions struct {
	vin    string
	output string
	log    *log.Options
}

func newDeriveCommand() *cobra.Command {
	o := &deriveOptions{vin: "local", output: outputTable, log: log.NewOptions()}

	cmd := &cobra.Command{
		Use:   "derive FILE...",
		Short: "Apply state documents in order and print the resulting reports",
		Long: `Apply one or more vehicle state documents, in the order given, to an empty
snapshot and print the resulting reports. Use "-" to read a document from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.output != outputTable && o.output != outputJSON {
				return fmt.Errorf("--output must be %q or %q", outputTable, outputJSON)
			}
			if errs := o.log.Validate(); len(errs) > 0 {
				return utilerrors.NewAggregate(errs)
			}
			log.Init(o.log)
			defer func() { _ = log.Sync() }()

			state, err := applyFiles(o.vin, args, cmd.InOrStdin())
			if printErr := printState(cmd.OutOrStdout(), state, o.output); printErr != nil {
				return printErr
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&o.vin, "vin", o.vin, "VIN recorded in the snapshot.")
	fs.StringVarP(&o.output, "output", "o", o.output, "Output format: table or json.")
	o.log.AddFlags(fs)

	return cmd
}

// applyFiles applies each document in turn. A document that fails to derive
// still contributes the kinds that succeeded.
func applyFiles(vin string, paths []string, stdin io.Reader) (vehicle.State, error) {
	state := vehicle.State{VIN: vin}
	var errs []error

	for _, path := range paths {
		data, err := readInput(path, stdin)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		doc, err := report.DecodeDocument(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		next, err := state.Apply(doc)
		if err != nil {
			log.Warn("Document partially applied", "file", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		state = next
	}

	return state, utilerrors.NewAggregate(errs)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printState(w io.Writer, s vehicle.State, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true

	table.AddRow("VIN:", s.VIN)
	table.AddRow("SERVICE REQUIRED:", s.Services.IsServiceRequired)
	table.AddRow("NEXT BY DISTANCE:", serviceType(s.Services.NextServiceByDistance))
	table.AddRow("NEXT BY TIME:", serviceType(s.Services.NextServiceByTime))
	table.AddRow("URGENT MESSAGES:", deref(s.CheckControl.UrgentCheckControlMessages))
	table.AddRow("IDRIVE:", s.Headunit.IDriveVersion)
	table.AddRow("HEAD UNIT:", s.Headunit.HeadunitType)
	table.AddRow("SOFTWARE:", s.Headunit.SoftwareVersion)
	table.AddRow("")

	table.AddRow("SERVICE", "STATE", "DUE DATE", "DUE DISTANCE")
	for _, m := range s.Services.Messages {
		due := "-"
		if m.DueDate != nil {
			due = m.DueDate.Format(time.DateOnly)
		}
		table.AddRow(m.ServiceType, m.State, due, m.DueDistance)
	}
	table.AddRow("")

	table.AddRow("CHECK CONTROL", "STATE", "DESCRIPTION")
	for _, m := range s.CheckControl.Messages {
		table.AddRow(m.DescriptionShort, m.State, deref(m.DescriptionLong))
	}

	_, err := fmt.Fprintln(w, table)
	return err
}

func serviceType(e *report.ServiceEntry) string {
	if e == nil {
		return "-"
	}
	return e.ServiceType
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
