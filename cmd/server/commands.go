package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/protrack/production-engine/factory"
	"github.com/protrack/production-engine/production"
)

type setupFunc func(*cobra.Command) (*app, error)

// =============================================================================
// MIGRATE
// =============================================================================

func newMigrateCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a store migrates it.
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			a.logger.Info("schema up to date", zap.String("driver", a.cfg.Store.Driver))
			fmt.Fprintf(cmd.OutOrStdout(), "%s store migrated\n", a.cfg.Store.Driver)
			return nil
		},
	}
}

// =============================================================================
// IMPORT PROGRAM
// =============================================================================

func newImportProgramCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import-program <file.json>",
		Short: "Upsert the master export program from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			program, err := factory.ParseProgram(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.service.ImportProgram(cmd.Context(), program)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d dossiers\n", n)
			return nil
		},
	}
}

// =============================================================================
// REPORTS
// =============================================================================

func newSummaryCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print global production statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.service.Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), stats)
		},
	}
}

func newReconcileCmd(setup setupFunc) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Print dossier progress against the master program",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			progress, err := a.service.Reconcile(cmd.Context(), search)
			if err != nil {
				return err
			}
			return printProgress(cmd.OutOrStdout(), progress)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by dossier, SAP code, destination or maritime agent")
	return cmd
}

func printSummary(out io.Writer, s production.SummaryStats) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "entries\t%d\n", s.EntryCount)
	fmt.Fprintf(tw, "total tonnage\t%s\n", tonnes(s.TotalTonnage))
	fmt.Fprintf(tw, "average per entry\t%s\n", tonnes(s.AverageTonnage))
	for _, c := range production.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", c, tonnes(s.Subtotal(c)))
	}
	fmt.Fprintf(tw, "unique dossiers\t%d\n", s.UniqueDossiers)
	return tw.Flush()
}

func printProgress(out io.Writer, progress []production.DossierProgress) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOSSIER\tSAP\tDESTINATION\tPRODUCED\tPLANNED\tPERCENT\tREMAINING")
	for _, p := range progress {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d%%\t%d\n",
			p.Target.ID,
			p.Target.DossierRef,
			p.Target.SAPCode,
			p.Target.Destination,
			tonnes(p.ProducedTonnage),
			tonnes(p.Target.PlannedTonnage),
			p.Percent,
			p.Remaining,
		)
	}
	return tw.Flush()
}

func tonnes(d decimal.Decimal) string {
	return d.StringFixed(production.TonnagePlaces)
}
