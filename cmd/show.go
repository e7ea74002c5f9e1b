package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var showOwner string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a registry account",
	Long: `Show the registry account for an owner: address, bump, record counts
and how much of the reserved space is used.

Examples:
  vx show
  vx show --owner 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showOwner, "owner", "", "Show another owner's registry (base58 public key)")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	owner, err := resolveOwner(showOwner)
	if err != nil {
		return err
	}

	info, err := registryService.GetRegistry(ctx, owner)
	if errors.Is(err, domain.ErrRegistryNotFound) {
		addr, bump, derr := registryService.RegistryAddress(owner)
		if derr != nil {
			return derr
		}
		fmt.Println(ui.FormatWarning("Registry not initialized"))
		fmt.Println(ui.RenderKeyValue("Address", addr.String()))
		fmt.Println(ui.RenderKeyValue("Bump", fmt.Sprintf("%d", bump)))
		fmt.Println(ui.FormatInfo("It is created by the first 'vx register'"))
		return nil
	}
	if err != nil {
		fmt.Println(ui.FormatError("Failed to load registry"))
		return err
	}

	reg := info.Registry
	fmt.Println(ui.FormatAsset("Registry"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Owner", reg.Owner.String()))
	fmt.Println(ui.RenderKeyValue("Address", info.Address.String()))
	fmt.Println(ui.RenderKeyValue("Bump", fmt.Sprintf("%d", reg.Bump)))
	fmt.Println(ui.RenderKeyValue("Records", fmt.Sprintf("%d / %d", len(reg.Assets), info.Capacity)))
	fmt.Println(ui.RenderKeyValue("Registered all-time", fmt.Sprintf("%d", reg.AssetCount)))
	fmt.Println(ui.RenderKeyValue("Space", fmt.Sprintf("%s of %s (%.1f%%)",
		humanize.Comma(int64(info.UsedBytes)),
		humanize.Comma(int64(info.Space)),
		100*float64(info.UsedBytes)/float64(info.Space))))
	fmt.Println(ui.RenderKeyValue("Content size", humanize.Bytes(reg.TotalSize())))

	return nil
}
