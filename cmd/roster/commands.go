package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/roster-scraper/internal/core"
	"github.com/baxromumarov/roster-scraper/internal/discovery"
)

func harvestCmd() *cobra.Command {
	var (
		out          string
		listingsPath string
		kind         string
	)
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Collect candidate player links from listing pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := resolveListings(cfg, listingsPath, kind)
			if err != nil {
				return err
			}
			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}

			p := core.NewPipeline(newHarvester(cfg, fetcher, listings), nil, nil, candidateFile(out))
			links, seen, err := p.Harvest(cmd.Context())
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), []summaryRow{
				{"Listings", len(listings)},
				{"Links seen", seen},
				{"Unique candidates", len(links)},
			})
			slog.Info("candidates written", "path", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "candidates.csv", "candidate CSV to write")
	cmd.Flags().StringVar(&listingsPath, "listings", "", "file with one listing URL per line (defaults to configured listings)")
	cmd.Flags().StringVar(&kind, "kind", string(discovery.KindTournament), "kind of the pages in --listings: portal or tournament")
	return cmd
}

func filterNamesCmd() *cobra.Command {
	var in, out, filtered string
	cmd := &cobra.Command{
		Use:   "filter-names",
		Short: "Drop candidates whose display name contains a space",
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := readCandidatesFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			o, err := openOutputs(cfg, "", filtered, false)
			if err != nil {
				return err
			}
			defer o.Close()

			p := core.NewPipeline(nil, nil, o.filtered, nil)
			kept, dropped, err := p.FilterNames(cmd.Context(), links)
			if err != nil {
				return err
			}
			if err := writeCandidatesFile(out, kept); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			renderSummary(cmd.OutOrStdout(), []summaryRow{
				{"Candidates", len(links)},
				{"Kept", len(kept)},
				{"Dropped", dropped},
			})
			return o.Close()
		},
	}
	cmd.Flags().StringVar(&in, "in", "candidates.csv", "candidate CSV to read")
	cmd.Flags().StringVar(&out, "out", "candidates_clean.csv", "filtered candidate CSV to write")
	cmd.Flags().StringVar(&filtered, "filtered", "candidates_dropped.csv", "CSV for dropped candidates")
	return cmd
}

func enrichCmd() *cobra.Command {
	var in, out, filtered string
	var useDB bool
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fetch each candidate profile and extract a player record",
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := readCandidatesFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			o, err := openOutputs(cfg, out, filtered, useDB)
			if err != nil {
				return err
			}
			defer o.Close()

			svc := core.NewEnrichmentService(fetcher, newExtractor(cfg), o.records, o.filtered)
			summary, err := svc.Run(cmd.Context(), links)
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), enrichmentRows(summary))
			renderReasons(cmd.OutOrStdout(), summary.ByReason)
			return o.Close()
		},
	}
	cmd.Flags().StringVar(&in, "in", "candidates_clean.csv", "candidate CSV to read")
	cmd.Flags().StringVar(&out, "out", "players.csv", "player CSV to write")
	cmd.Flags().StringVar(&filtered, "filtered", "players_filtered.csv", "CSV for candidates without a record")
	cmd.Flags().BoolVar(&useDB, "db", false, "also write to DATABASE_URL")
	return cmd
}

func runCmd() *cobra.Command {
	var out, filtered, candidatesOut string
	var useDB bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest, filter and enrich in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			o, err := openOutputs(cfg, out, filtered, useDB)
			if err != nil {
				return err
			}
			defer o.Close()

			var candidates candidateSinks
			if o.db != nil {
				candidates = append(candidates, o.db)
			}
			if candidatesOut != "" {
				candidates = append(candidates, candidateFile(candidatesOut))
			}
			harvester := newHarvester(cfg, fetcher, discovery.ListingsOrDefault(cfg.Listings))
			svc := core.NewEnrichmentService(fetcher, newExtractor(cfg), o.records, o.filtered)
			p := core.NewPipeline(harvester, svc, o.filtered, candidates)

			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			rows := []summaryRow{
				{"Links seen", result.Harvested},
				{"Unique candidates", result.Unique},
				{"Dropped (name has space)", result.Dropped},
			}
			renderSummary(cmd.OutOrStdout(), append(rows, enrichmentRows(result.Enrichment)...))
			renderReasons(cmd.OutOrStdout(), result.Enrichment.ByReason)
			return o.Close()
		},
	}
	cmd.Flags().StringVar(&out, "out", "players.csv", "player CSV to write")
	cmd.Flags().StringVar(&filtered, "filtered", "players_filtered.csv", "CSV for candidates without a record")
	cmd.Flags().StringVar(&candidatesOut, "candidates-out", "", "also write the reconciled candidates to this CSV")
	cmd.Flags().BoolVar(&useDB, "db", false, "also write to DATABASE_URL")
	return cmd
}
