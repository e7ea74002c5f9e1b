package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var (
	listType    string
	listSortBy  string
	listReverse bool
	listJSON    bool
	listOwner   string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list [query]",
	Short:   "List registered assets",
	Aliases: []string{"ls"},
	Long: `List the assets in a registry. The query matches name, description or
CID (case-insensitive). Without --sort, records are shown in registration
order.

Examples:
  vx list
  vx list holiday
  vx list --type image/
  vx list --sort size --reverse
  vx list --owner 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Filter by MIME type prefix, e.g. image/")
	listCmd.Flags().StringVar(&listSortBy, "sort", "", "Sort by field (date, name, size)")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Reverse sort order")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print records as JSON")
	listCmd.Flags().StringVar(&listOwner, "owner", "", "List another owner's registry (base58 public key)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	// If the flag was NOT changed by the user, use the config default
	if !cmd.Flags().Changed("sort") {
		listSortBy = appConfig.DefaultSort
	}
	if !cmd.Flags().Changed("reverse") {
		listReverse = appConfig.ReverseSort
	}

	owner, err := resolveOwner(listOwner)
	if err != nil {
		return err
	}

	req := services.ListRequest{
		Owner:    owner,
		FileType: listType,
		SortBy:   listSortBy,
		Reverse:  listReverse,
	}
	if len(args) == 1 {
		req.Query = args[0]
	}

	resp, err := registryService.ListAssets(ctx, req)
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list assets"))
		return err
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Assets)
	}

	if resp.Total == 0 {
		if req.Query != "" || req.FileType != "" {
			fmt.Println(ui.FormatWarning("No assets match"))
		} else {
			fmt.Println(ui.FormatWarning("No assets registered"))
			fmt.Println(ui.FormatInfo("Register your first asset with: vx register <cid> <name>"))
		}
		return nil
	}

	fmt.Println(ui.FormatAsset(fmt.Sprintf("Assets of %s", owner.Short())))
	fmt.Println()
	fmt.Print(renderAssetTable(resp.Assets))
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d assets", resp.Total)))

	return nil
}

// renderAssetTable renders records as a table honoring the configured width
func renderAssetTable(assets []domain.AssetRecord) string {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Name", Width: 20, Align: "left"},
		{Header: "Type", Width: 12, Align: "left"},
		{Header: "Size", Width: 8, Align: "right"},
		{Header: "Date", Width: 10, Align: "left"},
		{Header: "CID", Width: 12, Align: "left"},
	})
	table.MaxWidth = appConfig.TableWidth

	for _, a := range assets {
		table.AddRow([]string{
			ui.Truncate(a.Name, 40),
			a.FileType,
			a.GetSizeString(),
			a.GetDisplayDate(appConfig.DisplayDateFormat),
			a.ContentID,
		})
	}
	return table.Render()
}
