package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/loanbeacons/lendermatch-cli/internal/catalog"
	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

var (
	matchFile       string
	matchMode       string
	matchJSON       bool
	matchSelectID   string
	matchStoredOvrd bool
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Evaluate a loan scenario against the lender catalogs",
	Long:  "Normalizes a scenario, gates it against every lender/program pair, scores fit, and prints the ranked result sections.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		raw, err := loadScenario(matchFile, cmd)
		if err != nil {
			return err
		}

		eng, err := engine.New()
		if err != nil {
			return err
		}

		opts, err := buildEngineOptions(matchMode)
		if err != nil {
			return err
		}

		var st store.Store
		if matchStoredOvrd || matchSelectID != "" {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}
		if matchStoredOvrd {
			if err := appendStoredOverrides(ctx, st, &opts); err != nil {
				return err
			}
		}

		payload := eng.Run(raw, opts)

		if matchSelectID != "" {
			selected := findResult(&payload, matchSelectID)
			if selected == nil {
				return eris.Errorf("lender %s is not in the eligible results", matchSelectID)
			}

			record, err := engine.BuildDecisionRecord(selected, &payload.Scenario, payload.Confidence, time.Now())
			if err != nil {
				return err
			}

			stored, err := st.SaveRecord(ctx, record)
			if err != nil {
				return eris.Wrap(err, "save decision record")
			}
			zap.L().Info("decision record sealed",
				zap.String("id", stored.ID),
				zap.String("lender", record.SelectedLenderID),
				zap.Float64("fitScore", record.FitScore),
			)
			fmt.Fprintf(os.Stderr, "Sealed decision record %s\n", stored.ID)
		}

		if matchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		formatMatch(os.Stdout, &payload)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchFile, "file", "f", "", "scenario file (JSON or YAML)")
	matchCmd.Flags().StringVar(&matchMode, "mode", "", "presentation mode (SEPARATE_SECTIONS, FALLBACK_ONLY, COMBINED_RANKED)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "emit the full payload as JSON")
	matchCmd.Flags().StringVar(&matchSelectID, "select", "", "seal a decision record for the given lender ID")
	matchCmd.Flags().BoolVar(&matchStoredOvrd, "stored-overrides", false, "apply override fragments persisted in the store")

	matchCmd.Flags().Int("credit-score", 0, "borrower credit score")
	matchCmd.Flags().Float64("ltv", 0, "loan-to-value percent")
	matchCmd.Flags().Float64("dti", 0, "debt-to-income percent")
	matchCmd.Flags().Float64("loan-amount", 0, "loan amount")
	matchCmd.Flags().Float64("property-value", 0, "property value")
	matchCmd.Flags().Float64("dscr", 0, "debt service coverage ratio")
	matchCmd.Flags().String("loan-type", "", "loan type (Conventional, FHA, VA)")
	matchCmd.Flags().String("transaction", "", "transaction type (purchase, rateTerm, cashOut)")
	matchCmd.Flags().String("property-type", "", "property type (SFR, Condo, 2-4 Unit, ...)")
	matchCmd.Flags().String("occupancy", "", "occupancy (Primary, Second Home, Investment)")
	matchCmd.Flags().String("state", "", "property state (two-letter code)")
	matchCmd.Flags().String("doc-type", "", "income doc type (fullDoc, bankStatement12, dscr, ...)")
	matchCmd.Flags().Bool("self-employed", false, "borrower is self-employed")
	matchCmd.Flags().String("credit-event", "", "credit event type (bankruptcy, foreclosure, shortSale)")
	matchCmd.Flags().Int("credit-event-months", 0, "months since credit event")
	matchCmd.Flags().Float64("reserves", 0, "reserves in months")
	matchCmd.Flags().Float64("total-assets", 0, "total verifiable assets")

	rootCmd.AddCommand(matchCmd)
}

// loadScenario reads a scenario from a file when given, then lets flags
// override individual fields.
func loadScenario(path string, cmd *cobra.Command) (engine.RawScenario, error) {
	var raw engine.RawScenario

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return raw, eris.Wrapf(err, "read scenario %s", path)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return raw, eris.Wrapf(err, "parse scenario %s", path)
			}
		default:
			if err := json.Unmarshal(data, &raw); err != nil {
				return raw, eris.Wrapf(err, "parse scenario %s", path)
			}
		}
	}

	flags := cmd.Flags()
	if v, _ := flags.GetInt("credit-score"); v != 0 {
		raw.CreditScore = v
	}
	if v, _ := flags.GetFloat64("ltv"); v != 0 {
		raw.LTV = v
	}
	if v, _ := flags.GetFloat64("dti"); v != 0 {
		raw.DTI = v
	}
	if v, _ := flags.GetFloat64("loan-amount"); v != 0 {
		raw.LoanAmount = v
	}
	if v, _ := flags.GetFloat64("property-value"); v != 0 {
		raw.PropertyValue = v
	}
	if v, _ := flags.GetFloat64("dscr"); v != 0 {
		raw.DSCR = v
	}
	if v, _ := flags.GetString("loan-type"); v != "" {
		raw.LoanType = v
	}
	if v, _ := flags.GetString("transaction"); v != "" {
		raw.TransactionType = v
	}
	if v, _ := flags.GetString("property-type"); v != "" {
		raw.PropertyType = v
	}
	if v, _ := flags.GetString("occupancy"); v != "" {
		raw.Occupancy = v
	}
	if v, _ := flags.GetString("state"); v != "" {
		raw.State = v
	}
	if v, _ := flags.GetString("doc-type"); v != "" {
		raw.IncomeDocType = v
	}
	if v, _ := flags.GetBool("self-employed"); v {
		raw.SelfEmployed = true
	}
	if v, _ := flags.GetString("credit-event"); v != "" {
		raw.CreditEvent = v
	}
	if v, _ := flags.GetInt("credit-event-months"); v != 0 {
		raw.CreditEventMonths = v
	}
	if v, _ := flags.GetFloat64("reserves"); v != 0 {
		raw.ReservesMonths = v
	}
	if v, _ := flags.GetFloat64("total-assets"); v != 0 {
		raw.TotalAssets = v
	}

	if _, ok := engine.ParseCreditEvent(raw.CreditEvent); !ok {
		return raw, eris.Errorf("unknown credit event %q (expected bankruptcy, foreclosure, or shortSale)", raw.CreditEvent)
	}

	return raw, nil
}

// buildEngineOptions assembles run options from config and the mode flag.
func buildEngineOptions(mode string) (engine.Options, error) {
	var opts engine.Options

	switch mode {
	case "":
		opts.Mode = model.PresentationMode(cfg.Match.Mode)
	case string(model.ModeSeparateSections), string(model.ModeFallbackOnly), string(model.ModeCombinedRanked):
		opts.Mode = model.PresentationMode(mode)
	default:
		return opts, eris.Errorf("unknown presentation mode: %s", mode)
	}

	if path := cfg.Overrides.AgencyPath; path != "" {
		raws, err := loadOverrides(path)
		if err != nil {
			return opts, err
		}
		opts.AgencyOverrides = raws
	}
	if path := cfg.Overrides.NonQMPath; path != "" {
		raws, err := loadOverrides(path)
		if err != nil {
			return opts, err
		}
		opts.NonQMOverrides = raws
	}

	return opts, nil
}

func loadOverrides(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read overrides %s", path)
	}
	return catalog.LoadOverrideFile(data)
}

// findResult looks up an eligible result by lender ID across both sections.
func findResult(payload *model.MatchPayload, lenderID string) *model.LenderResult {
	for i := range payload.AgencySection.Eligible {
		if payload.AgencySection.Eligible[i].LenderID == lenderID {
			return &payload.AgencySection.Eligible[i]
		}
	}
	for i := range payload.NonQMSection.Eligible {
		if payload.NonQMSection.Eligible[i].LenderID == lenderID {
			return &payload.NonQMSection.Eligible[i]
		}
	}
	return nil
}

// formatMatch writes a human-readable match summary to w.
func formatMatch(out io.Writer, payload *model.MatchPayload) {
	fmt.Fprintf(out, "Scenario: %s\n", payload.ScenarioSummary)
	fmt.Fprintf(out, "Overlay risk: %s", payload.OverlayRisk.Level)
	if len(payload.OverlayRisk.Signals) > 0 {
		fmt.Fprintf(out, " (%s)", strings.Join(payload.OverlayRisk.Signals, "; "))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Confidence: %.2f %s - %s\n\n", payload.Confidence.Score, payload.Confidence.Level, payload.Confidence.Message)

	if payload.CombinedSection != nil {
		formatSection(out, "Combined Results", payload.CombinedSection)
		return
	}

	if payload.NonQMSection.IsHero {
		formatSection(out, "Alternative Path", &payload.NonQMSection)
		formatSection(out, "Agency Lenders", &payload.AgencySection)
		return
	}

	formatSection(out, "Agency Lenders", &payload.AgencySection)
	if payload.NonQMSection.Visible {
		formatSection(out, "Alternative Path", &payload.NonQMSection)
	}
}

func formatSection(out io.Writer, title string, section *model.SectionSummary) {
	fmt.Fprintf(out, "== %s ==\n", title)

	if section.NoMatch {
		fmt.Fprintf(out, "%s\n\n", section.NoMatchMessage)
		return
	}
	if section.ShowPlaceholderWarning {
		fmt.Fprintln(out, "Some results are profile-based estimates. Verify directly with the lender.")
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LENDER\tPROGRAM\tSTATUS\tFIT\tTIER\tSOURCE")
	_, _ = fmt.Fprintln(w, "------\t-------\t------\t---\t----\t------")
	for _, r := range section.Eligible {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.0f/%.0f\t%s\t%s\n",
			r.LenderName, r.Program, r.EligibilityLabel, r.FitScore, r.MaxPossible, r.Tier, r.DataSource)
	}
	_ = w.Flush()

	if section.TotalIneligible > 0 {
		fmt.Fprintf(out, "\n%d not eligible:\n", section.TotalIneligible)
		for _, r := range section.Ineligible {
			fmt.Fprintf(out, "  %s (%s): %s\n", r.LenderName, r.Program, r.FailReason)
		}
	}
	fmt.Fprintln(out)
}
