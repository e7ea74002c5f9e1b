package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/adapters/auth"
	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var (
	deleteRegistry string
	deleteYes      bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete [cid]",
	Aliases: []string{"rm"},
	Short:   "Delete every record of an asset from your registry",
	Long: `Delete all records whose CID matches exactly. Other records keep their
order. The lifetime registration count is not decremented.

Without a CID, pick an asset interactively.

Examples:
  vx delete QmXoyp...
  vx delete
  vx delete QmXoyp... --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteRegistry, "registry", "", "Registry account address (default: derived from your key)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	kp, err := loadSigner()
	if err != nil {
		return err
	}
	owner := kp.PublicKey()

	// 1. Select CID
	var cid string
	if len(args) == 1 {
		cid = args[0]
	} else {
		listResp, err := registryService.ListAssets(ctx, services.ListRequest{Owner: owner, SortBy: "date", Reverse: true})
		if err != nil {
			fmt.Println(ui.FormatError("Failed to list assets"))
			return err
		}
		if listResp.Total == 0 {
			fmt.Println(ui.FormatWarning("No assets registered"))
			return nil
		}

		assets := listResp.Assets
		idx, err := fuzzyfinder.Find(
			assets,
			func(i int) string {
				return fmt.Sprintf("%s  %s  %s", assets[i].Name, assets[i].FileType, assets[i].ContentID)
			},
			fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
				if i == -1 {
					return ""
				}
				return assetPreview(assets[i], assets)
			}),
		)
		if err != nil {
			// User cancelled (Ctrl+C or ESC)
			fmt.Println(ui.FormatInfo("Operation cancelled."))
			return nil
		}
		cid = assets[idx].ContentID
	}

	req := services.DeleteRequest{Owner: owner, ContentID: cid}
	if deleteRegistry != "" {
		addr, err := domain.ParsePublicKey(deleteRegistry)
		if err != nil {
			return fmt.Errorf("invalid --registry: %w", err)
		}
		req.Registry = &addr
	}

	// 2. Confirmation
	if !deleteYes {
		fmt.Println(ui.FormatWarning("You are about to delete every record of:"))
		fmt.Printf("  %s\n", ui.StyleBold.Render(cid))
		fmt.Println()

		reader := bufio.NewReader(os.Stdin)
		fmt.Print(ui.StyleError.Render("Delete? (y/n): "))
		response, err := reader.ReadString('\n')
		if err != nil || strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// 3. Delete
	req.Nonce = auth.NewNonce()
	req.Signature = kp.Sign(req.SigningPayload())

	resp, err := registryService.DeleteAsset(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAssetNotFound):
			fmt.Println(ui.FormatWarning("No asset with CID " + cid))
		case errors.Is(err, domain.ErrRegistryNotFound):
			fmt.Println(ui.FormatWarning("You have no registry yet"))
			fmt.Println(ui.FormatInfo("Register an asset with 'vx register' first"))
		case errors.Is(err, domain.ErrAddressMismatch), errors.Is(err, domain.ErrUnauthorized):
			fmt.Println(ui.FormatError("That registry does not belong to " + owner.Short()))
		default:
			fmt.Println(ui.FormatError("Failed to delete asset"))
		}
		return err
	}

	msg := "Deleted 1 record"
	if resp.Removed > 1 {
		msg = fmt.Sprintf("Deleted %d records", resp.Removed)
	}
	fmt.Println(ui.FormatDeleted(msg))
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d records remain, %d registered all-time", resp.Remaining, resp.AssetCount)))

	return nil
}

// assetPreview renders the finder preview pane for a record
func assetPreview(a domain.AssetRecord, all []domain.AssetRecord) string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("Name: %s\n", ui.StyleBold.Render(a.Name)))
	s.WriteString(fmt.Sprintf("CID:  %s\n", a.ContentID))
	s.WriteString(fmt.Sprintf("Type: %s\n", a.FileType))
	s.WriteString(fmt.Sprintf("Size: %s\n", a.GetSizeString()))
	s.WriteString(fmt.Sprintf("Date: %s\n", a.RegisteredAt().Format("Jan 02, 2006 15:04")))
	if a.Description != "" {
		s.WriteString("\n" + a.Description + "\n")
	}

	dupes := 0
	for _, other := range all {
		if other.ContentID == a.ContentID {
			dupes++
		}
	}
	if dupes > 1 {
		s.WriteString(fmt.Sprintf("\n%d records share this CID and will all be deleted\n", dupes))
	}
	return s.String()
}
