package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/loanbeacons/lendermatch-cli/internal/catalog"
	"github.com/loanbeacons/lendermatch-cli/internal/engine"
	"github.com/loanbeacons/lendermatch-cli/internal/schema"
	"github.com/loanbeacons/lendermatch-cli/internal/store"
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Manage stored catalog overrides",
	Long:  "Persists override fragments that are merged onto the embedded catalogs at evaluation time. Verified records supersede placeholders; placeholder fragments patch in place.",
}

var overridesAddCmd = &cobra.Command{
	Use:   "add <agency|nonqm> <file.json>",
	Short: "Store override fragments from a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cat, err := overrideCatalogName(args[0])
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[1])
		if err != nil {
			return eris.Wrapf(err, "read overrides %s", args[1])
		}
		fragments, err := catalog.LoadOverrideFile(data)
		if err != nil {
			return err
		}

		// Pricing data is rejected before it ever reaches the store.
		for i, frag := range fragments {
			if err := schema.ScanPricingFields(frag); err != nil {
				return eris.Wrapf(err, "override %d", i)
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		for _, frag := range fragments {
			if _, err := st.SaveOverride(ctx, cat, frag); err != nil {
				return eris.Wrap(err, "overrides add")
			}
		}

		fmt.Printf("Stored %d override(s) for the %s catalog\n", len(fragments), cat)
		return nil
	},
}

var overridesListCmd = &cobra.Command{
	Use:   "list <agency|nonqm>",
	Short: "List stored override fragments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cat, err := overrideCatalogName(args[0])
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		overrides, err := st.ListOverrides(ctx, cat)
		if err != nil {
			return eris.Wrap(err, "overrides list")
		}
		if len(overrides) == 0 {
			fmt.Fprintln(os.Stderr, "No stored overrides.")
			return nil
		}

		formatOverridesList(os.Stdout, overrides)
		return nil
	},
}

func init() {
	overridesCmd.AddCommand(overridesAddCmd)
	overridesCmd.AddCommand(overridesListCmd)
	rootCmd.AddCommand(overridesCmd)
}

func overrideCatalogName(arg string) (string, error) {
	switch arg {
	case store.CatalogAgency, store.CatalogNonQM:
		return arg, nil
	default:
		return "", eris.Errorf("unknown catalog %q (expected agency or nonqm)", arg)
	}
}

// appendStoredOverrides merges the store's override fragments into the engine
// options, after any file-based overrides.
func appendStoredOverrides(ctx context.Context, st store.Store, opts *engine.Options) error {
	agency, err := st.ListOverrides(ctx, store.CatalogAgency)
	if err != nil {
		return eris.Wrap(err, "load stored agency overrides")
	}
	for _, o := range agency {
		opts.AgencyOverrides = append(opts.AgencyOverrides, o.Patch)
	}

	nonQM, err := st.ListOverrides(ctx, store.CatalogNonQM)
	if err != nil {
		return eris.Wrap(err, "load stored nonqm overrides")
	}
	for _, o := range nonQM {
		opts.NonQMOverrides = append(opts.NonQMOverrides, o.Patch)
	}
	return nil
}

func formatOverridesList(out io.Writer, overrides []store.StoredOverride) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATALOG\tTARGET\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-------")

	for _, o := range overrides {
		var target struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(o.Patch, &target)

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncateID(o.ID), o.Catalog, target.ID, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
