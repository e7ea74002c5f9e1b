package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var (
	statsChart bool
	statsOwner string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry statistics",
	Long: `Analyze a registry and display useful statistics.

Includes:
  - Records held and registered all-time
  - Total content size
  - Breakdown by MIME type
  - Oldest and newest registrations

With --chart, an HTML report is written to the vault cache and opened.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsChart, "chart", false, "Render an HTML chart report")
	statsCmd.Flags().StringVar(&statsOwner, "owner", "", "Analyze another owner's registry (base58 public key)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	owner, err := resolveOwner(statsOwner)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatRocket("Analyzing registry..."))

	stats, err := registryService.Stats(ctx, owner)
	if errors.Is(err, domain.ErrRegistryNotFound) {
		fmt.Println(ui.FormatWarning("Registry not initialized"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(ui.FormatTitle("Registry Statistics"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Records", fmt.Sprintf("%d / %d", stats.Records, stats.Capacity)))
	fmt.Println(ui.RenderKeyValue("Registered all-time", fmt.Sprintf("%d (%d deleted)", stats.AssetCount, stats.Deleted)))
	fmt.Println(ui.RenderKeyValue("Content size", humanize.Bytes(stats.TotalBytes)))
	fmt.Println(ui.RenderKeyValue("Space used", usageBar(stats.UsedBytes, stats.Space, 20)))
	if stats.Records > 0 {
		fmt.Println(ui.RenderKeyValue("Oldest", humanize.Time(stats.Oldest)))
		fmt.Println(ui.RenderKeyValue("Newest", humanize.Time(stats.Newest)))
	}

	if len(stats.ByType) > 0 {
		fmt.Println()
		fmt.Println(ui.StyleHeader.Render("By type"))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, ts := range stats.ByType {
			fmt.Fprintf(w, "  %s\t%d\t%s\n", ts.FileType, ts.Count, humanize.Bytes(ts.Bytes))
		}
		w.Flush()
	}

	if statsChart {
		path := appVault.GetCachePath("stats.html")
		if err := writeStatsChart(path, stats); err != nil {
			fmt.Println(ui.FormatError("Failed to render chart"))
			return err
		}
		fmt.Println()
		fmt.Println(ui.FormatSuccess("Chart written to " + path))
		if err := OpenFile(path); err != nil {
			fmt.Println(ui.FormatMuted(err.Error()))
		}
	}

	return nil
}

// usageBar renders "[████░░░░] 42.0%" for used out of total
func usageBar(used, total, width int) string {
	if total <= 0 {
		return ""
	}
	filled := used * width / total
	if filled > width {
		filled = width
	}
	pct := 100 * float64(used) / float64(total)
	return fmt.Sprintf("[%s%s] %.1f%%",
		ui.StyleSuccess.Render(strings.Repeat("█", filled)),
		ui.StyleMuted.Render(strings.Repeat("░", width-filled)),
		pct)
}

// writeStatsChart renders a per-type pie and size bar chart as HTML
func writeStatsChart(path string, stats *services.StatsResponse) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "Records by type",
		Subtitle: stats.Address.String(),
	}))
	pieData := make([]opts.PieData, 0, len(stats.ByType))
	for _, ts := range stats.ByType {
		pieData = append(pieData, opts.PieData{Name: ts.FileType, Value: ts.Count})
	}
	pie.AddSeries("records", pieData)

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Bytes by type"}))
	types := make([]string, 0, len(stats.ByType))
	barData := make([]opts.BarData, 0, len(stats.ByType))
	for _, ts := range stats.ByType {
		types = append(types, ts.FileType)
		barData = append(barData, opts.BarData{Value: ts.Bytes})
	}
	bar.SetXAxis(types).AddSeries("bytes", barData)

	page := components.NewPage()
	page.AddCharts(pie, bar)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return page.Render(f)
}
