package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rosterforge/legend-engine/internal/ingest"
	"github.com/rosterforge/legend-engine/internal/model"
	"github.com/rosterforge/legend-engine/internal/pipeline"
	"github.com/rosterforge/legend-engine/internal/rules"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run the full scoring and allocation pipeline",
	Long: `Runs the complete pipeline over an input snapshot: era cohort
normalization, peak window detection, eligibility gating, composite ranking,
quota allocation, and attribute mapping. The run result and its provenance
manifest are persisted to the configured store.

Examples:
  # Rank the default snapshot with the default ruleset
  rank

  # Rank a specific snapshot with a custom ruleset
  rank --rules rules/modern.yaml --individuals data/players.csv --seasons data/seasons.csv

  # Export the selection manifest to CSV
  rank --format csv --output roster.csv

  # Only show included entries
  rank --included-only`,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.String("rules", "", "ruleset path (overrides config)")
	f.String("individuals", "", "individuals CSV path (overrides config)")
	f.String("seasons", "", "season metrics CSV path (overrides config)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")
	f.Bool("included-only", false, "show only entries included in the roster")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "rank"))

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("rank: --format must be table or csv (got %q)", format)
	}
	outputPath, _ := cmd.Flags().GetString("output")
	includedOnly, _ := cmd.Flags().GetBool("included-only")

	rulesPath := flagOrDefault(cmd, "rules", cfg.Snapshot.RulesPath)
	individualsPath := flagOrDefault(cmd, "individuals", cfg.Snapshot.IndividualsPath)
	seasonsPath := flagOrDefault(cmd, "seasons", cfg.Snapshot.SeasonsPath)

	rs, err := rules.Load(rulesPath)
	if err != nil {
		return err
	}
	vr := rs.Validate()
	for _, w := range vr.Warnings {
		log.Warn("ruleset warning", zap.String("warning", w))
	}
	if !vr.OK() {
		return eris.Errorf("rank: invalid ruleset %s: %v", rulesPath, vr.Errors)
	}

	snap, err := ingest.LoadSnapshot(individualsPath, seasonsPath)
	if err != nil {
		return err
	}
	log.Info("snapshot loaded",
		zap.String("snapshot_id", snap.ID),
		zap.Int("individuals", len(snap.Individuals)),
	)

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	hash, err := rs.Hash()
	if err != nil {
		return err
	}
	run, err := st.CreateRun(ctx, snap.ID, hash)
	if err != nil {
		return err
	}
	if err := st.UpdateRunStatus(ctx, run.ID, model.RunStatusNormalizing); err != nil {
		return err
	}

	engine := pipeline.NewEngine(rs, cfg.Engine.Workers)
	result, err := engine.Run(ctx, run.ID, snap.ID, snap.Individuals)
	if err != nil {
		if stErr := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); stErr != nil {
			log.Error("mark run failed", zap.Error(stErr))
		}
		return eris.Wrap(err, "rank: pipeline")
	}

	if err := st.UpdateRunResult(ctx, run.ID, result); err != nil {
		return err
	}

	log.Info("run complete",
		zap.String("run_id", run.ID),
		zap.Int("total_ranked", result.TotalRanked),
		zap.Int("included", result.Selection.IncludedCount()),
		zap.Int("flex_used", result.Selection.FlexUsed),
	)

	names := make(map[string]string, len(snap.Individuals))
	for i := range snap.Individuals {
		names[snap.Individuals[i].ID] = snap.Individuals[i].Name
	}

	entries := result.Selection.Entries
	if includedOnly {
		kept := entries[:0:0]
		for _, e := range entries {
			if e.Included {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	return outputSelection(entries, names, format, outputPath)
}

func flagOrDefault(cmd *cobra.Command, name, def string) string {
	v, _ := cmd.Flags().GetString(name)
	if v != "" {
		return v
	}
	return def
}

func outputSelection(entries []model.SelectionEntry, names map[string]string, format, outputPath string) error {
	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "rank: create %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	if format == "csv" {
		w := csv.NewWriter(out)
		if err := w.Write([]string{"position", "rank", "individual_id", "name", "composite", "included", "reason"}); err != nil {
			return eris.Wrap(err, "rank: write csv header")
		}
		for _, e := range entries {
			rec := []string{
				string(e.Position),
				strconv.Itoa(e.Rank),
				e.IndividualID,
				names[e.IndividualID],
				strconv.FormatFloat(e.Composite, 'f', 4, 64),
				strconv.FormatBool(e.Included),
				e.Reason,
			}
			if err := w.Write(rec); err != nil {
				return eris.Wrap(err, "rank: write csv row")
			}
		}
		w.Flush()
		return eris.Wrap(w.Error(), "rank: flush csv")
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "POS\tRANK\tID\tNAME\tCOMPOSITE\tINCLUDED\tREASON")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.4f\t%t\t%s\n",
			e.Position, e.Rank, e.IndividualID, names[e.IndividualID], e.Composite, e.Included, e.Reason)
	}
	return tw.Flush()
}
