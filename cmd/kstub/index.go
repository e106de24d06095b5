package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kstub/internal/index"
	"kstub/internal/metadata"
	"kstub/internal/observ"
)

var indexCmd = &cobra.Command{
	Use:   "index [flags] <store-dir>",
	Short: "Build stubs for every unit in a metadata store",
	Long:  "Build decompiled stubs for every compiled unit in a store in parallel and report failures.",
	Args:  cobra.ExactArgs(1),
	RunE:  indexExecution,
}

func init() {
	indexCmd.Flags().Int("jobs", 0, "max parallel units (0=config or GOMAXPROCS)")
	indexCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	indexCmd.Flags().String("format", "text", "summary format (text|json)")
}

type indexSummary struct {
	Store        string         `json:"store"`
	Units        int            `json:"units"`
	Nested       int            `json:"nested"`
	Declarations int            `json:"declarations"`
	Failures     []string       `json:"failures,omitempty"`
	Timings      *observ.Report `json:"timings,omitempty"`
}

func indexExecution(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must not be negative")
	}
	if !cmd.Flags().Changed("jobs") {
		jobs = activeConfig.Index.Jobs
	}

	store, err := openExistingStore(args[0])
	if err != nil {
		return err
	}
	b := newBuilder(store)
	opts := index.Options{Jobs: jobs}

	var res *index.Result
	if format == "text" && mode.enabled(os.Stdout) {
		plan, err := index.NewPlan(store)
		if err != nil {
			return err
		}
		units := make([]string, len(plan.Roots))
		for i, k := range plan.Roots {
			units[i] = k.String()
		}
		res, err = runIndexWithUI(cmd.Context(), "kstub index", units, store, b, opts)
		if err != nil {
			return err
		}
	} else {
		res, err = index.Run(cmd.Context(), store, b, opts)
		if err != nil {
			return err
		}
	}

	summary := indexSummary{
		Store:        store.Dir(),
		Units:        len(res.Units),
		Nested:       res.Nested,
		Declarations: res.Declarations(),
		Failures:     index.SortedFailures(res),
	}
	if showTimings {
		summary.Timings = &res.Timings
	}
	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printIndexSummary(out, &summary)
	}
	if n := len(summary.Failures); n > 0 {
		return fmt.Errorf("%d of %d units failed", n, summary.Units)
	}
	return nil
}

func printIndexSummary(out io.Writer, s *indexSummary) {
	fmt.Fprintf(out, "indexed %d units (%d nested), %d declarations\n", s.Units, s.Nested, s.Declarations)
	for _, f := range s.Failures {
		fmt.Fprintf(out, "  failed: %s\n", f)
	}
	if s.Timings != nil {
		printTimings(out, *s.Timings)
	}
}

func printTimings(out io.Writer, report observ.Report) {
	for _, p := range report.Phases {
		if p.Note != "" {
			fmt.Fprintf(out, "%s %.1f ms (%s)\n", p.Name, p.DurationMS, p.Note)
			continue
		}
		fmt.Fprintf(out, "%s %.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "total %.1f ms\n", report.TotalMS)
}

// openExistingStore opens dir as a metadata store; unlike metadata.OpenStore
// it refuses to create a missing directory.
func openExistingStore(dir string) (*metadata.Store, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", dir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("store %s: not a directory", dir)
	}
	return metadata.OpenStore(dir)
}
