// cmd/analyzer/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"torncorp-analyzer/internal/analyzer"
	"torncorp-analyzer/internal/api"
	apperrors "torncorp-analyzer/internal/common/errors"
	"torncorp-analyzer/internal/models"
	"torncorp-analyzer/internal/stats"

	"github.com/spf13/cobra"
)

var (
	loadType    int
	loadRefresh bool
	loadKey     string
	viewFormat  string
	purgeType   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer HTTP API",
	RunE:  runServe,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a company type into the current batch and print the view",
	Long: `Load the companies of a type, reading through the daily cache unless
--refresh is given. Without --type the stored selection is used.

Examples:
  torncorp-analyzer load
  torncorp-analyzer load --type 27 --refresh
  torncorp-analyzer load --key <api key> --format json`,
	RunE: runLoad,
}

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the stored selection with the saved filters and sort",
	RunE:  runView,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop the cached companies of a type",
	RunE:  runPurge,
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the Torn company types",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, t := range models.CompanyTypes {
			fmt.Fprintf(w, "%d\t%s\n", t.ID, t.Name)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, loadCmd, viewCmd, purgeCmd, typesCmd)

	loadCmd.Flags().IntVar(&loadType, "type", 0, "Company type id (default: stored selection)")
	loadCmd.Flags().BoolVar(&loadRefresh, "refresh", false, "Bypass the cache and fetch live")
	loadCmd.Flags().StringVar(&loadKey, "key", "", "Torn API key to store before loading")
	loadCmd.Flags().StringVar(&viewFormat, "format", "table", "Output format (table|json)")

	viewCmd.Flags().StringVar(&viewFormat, "format", "table", "Output format (table|json)")

	purgeCmd.Flags().IntVar(&purgeType, "type", 0, "Company type id")
	_ = purgeCmd.MarkFlagRequired("type")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// warm the batch; failures are surfaced on the next request
	if _, err := a.service.Reload(ctx, false); err != nil && !apperrors.Is(err, apperrors.ErrCodeConfiguration) {
		a.log.Warn("initial load failed", map[string]interface{}{"error": err})
	}

	server := api.NewServer(api.Config{
		Address:      a.cfg.Server.Address,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Millisecond,
	}, a.service, a.redis, a.log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info("analyzer stopped gracefully", nil)
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if key := strings.TrimSpace(loadKey); key != "" {
		if _, err := a.state.SetAPIKey(ctx, key); err != nil {
			a.log.Warn("api key not persisted", map[string]interface{}{"error": err})
		}
	}

	if loadType > 0 {
		_, err = a.service.LoadSelected(ctx, loadType, loadRefresh)
	} else {
		_, err = a.service.Reload(ctx, loadRefresh)
	}
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrCodeEmptyResult) {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	}
	return printView(cmd.OutOrStdout(), a.service.View(ctx), viewFormat)
}

func runView(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// the batch is process-local; cached data makes this cheap
	if _, err := a.service.Reload(ctx, false); err != nil && !apperrors.Is(err, apperrors.ErrCodeEmptyResult) {
		return err
	}
	return printView(cmd.OutOrStdout(), a.service.View(ctx), viewFormat)
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.PurgeCache(ctx, purgeType); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", a.cache.Key(purgeType))
	return nil
}

func printView(out io.Writer, view analyzer.View, format string) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(out, "%s: %d of %d companies (sort %s %s)\n\n",
		models.CompanyTypeName(view.CategoryID), len(view.Rows), view.Total, view.Sort.Field, view.Sort.Direction)

	for _, h := range view.Highlights {
		fmt.Fprintf(out, "%-12s %10s  %s\n", h.Title, h.Value, h.Subtext)
	}
	if len(view.Highlights) > 0 {
		fmt.Fprintln(out)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTORN\tID\tNAME\tSTARS\tAGE\tDAILY\tWEEKLY\tCUST/D\tPERF\tAGE/REV/CUST")
	for _, r := range view.Rows {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%.0f\t%d\t%s\t%s\t%d\t%.2f\t%d/%d/%d of %d\n",
			r.DisplayRank, r.TornRank, r.ID, r.Name, r.Rating, r.DaysOld,
			stats.Compact(r.DailyIncome), stats.Compact(r.WeeklyIncome), r.DailyCustomers, r.Performance,
			r.MarkedRanks.RankAge, r.MarkedRanks.RankRevenue, r.MarkedRanks.RankCustomers, r.MarkedRanks.TotalInGroup)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(view.Bookmarked) > 0 {
		fmt.Fprintf(out, "\nBookmarked (%d):\n", len(view.Bookmarked))
		for _, b := range view.Bookmarked {
			fmt.Fprintf(out, "  %d %s\n", b.ID, b.Name)
		}
	}
	return nil
}
