package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect sealed decision records",
	Long:  "Commands for listing, viewing, voiding, and exporting sealed lender selection records.",
}

// -- records list --

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List decision records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		lender, _ := cmd.Flags().GetString("lender")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RecordFilter{
			Status:     model.RecordStatus(status),
			LenderID:   lender,
			DataSource: model.DataSource(source),
			Limit:      limit,
		}

		records, err := st.ListRecords(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "records list")
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No records found.")
			return nil
		}

		formatRecordsList(os.Stdout, records)
		return nil
	},
}

// -- records show --

var recordsShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Show the full sealed record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		record, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "records show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

// -- records void --

var recordsVoidCmd = &cobra.Command{
	Use:   "void <record-id>",
	Short: "Void a decision record",
	Long:  "Marks a record VOIDED with a reason. The sealed snapshot is retained; records are never deleted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reason, _ := cmd.Flags().GetString("reason")
		if reason == "" {
			return eris.New("--reason is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.VoidRecord(ctx, args[0], reason); err != nil {
			return eris.Wrap(err, "records void")
		}

		fmt.Printf("Voided record %s\n", args[0])
		return nil
	},
}

// -- records export --

var recordsExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export decision records to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := st.ListRecords(ctx, store.RecordFilter{
			Status: model.RecordStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "records export")
		}

		if err := writeRecordsXLSX(args[0], records); err != nil {
			return err
		}

		fmt.Printf("Exported %d record(s) to %s\n", len(records), args[0])
		return nil
	},
}

func init() {
	recordsListCmd.Flags().String("status", "", "filter by record status (ACTIVE, VOIDED)")
	recordsListCmd.Flags().String("lender", "", "filter by selected lender ID")
	recordsListCmd.Flags().String("source", "", "filter by data source (REAL, PLACEHOLDER)")
	recordsListCmd.Flags().Int("limit", 50, "max number of records to display")

	recordsVoidCmd.Flags().String("reason", "", "reason the record is voided")

	recordsExportCmd.Flags().String("status", "", "filter by record status (ACTIVE, VOIDED)")
	recordsExportCmd.Flags().Int("limit", 1000, "max number of records to export")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsVoidCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	rootCmd.AddCommand(recordsCmd)
}

// formatRecordsList writes a tabular list of records to w.
func formatRecordsList(out io.Writer, records []model.StoredRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tLENDER\tPROGRAM\tFIT\tSOURCE\tSTATUS\tSELECTED")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t---\t------\t------\t--------")

	for _, r := range records {
		name := r.Record.ProfileName
		if len(name) > 30 {
			name = name[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\t%s\t%s\n",
			truncateID(r.ID),
			name,
			r.Record.SelectedProgramID,
			r.Record.FitScore,
			r.Record.DataSource,
			r.Status,
			r.Record.SelectedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// writeRecordsXLSX writes records to an XLSX workbook with one row per record.
func writeRecordsXLSX(path string, records []model.StoredRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Decision Records")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"ID", "Status", "Void Reason", "Lender ID", "Lender", "Program",
		"Fit Score", "Eligibility", "Overlay Risk", "Confidence",
		"Data Source", "Guideline Ref", "Selected At",
	} {
		header.AddCell().Value = h
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().Value = r.ID
		row.AddCell().Value = string(r.Status)
		row.AddCell().Value = r.VoidReason
		row.AddCell().Value = r.Record.SelectedLenderID
		row.AddCell().Value = r.Record.ProfileName
		row.AddCell().Value = r.Record.SelectedProgramID
		row.AddCell().SetFloat(r.Record.FitScore)
		row.AddCell().Value = string(r.Record.EligibilityStatus)
		row.AddCell().Value = string(r.Record.OverlayRisk)
		row.AddCell().SetFloat(r.Record.ConfidenceScore)
		row.AddCell().Value = string(r.Record.DataSource)
		row.AddCell().Value = r.Record.GuidelineVersionRef
		row.AddCell().Value = r.Record.SelectedAt.Format(time.RFC3339)
	}

	return eris.Wrapf(f.Save(path), "xlsx: save %s", path)
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
