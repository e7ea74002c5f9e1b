package cmd

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/adapters/auth"
	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var (
	registerDescription string
	registerType        string
	registerSize        uint64
	registerFromFile    string
	registerCopy        bool
)

var registerCmd = &cobra.Command{
	Use:     "register <cid> [name]",
	Aliases: []string{"add"},
	Short:   "Register an asset in your registry",
	Long: `Register an asset's metadata in your registry. The registry is created
on first use.

The content itself is not stored: <cid> names it (e.g. an IPFS CID).
With --from-file, size and MIME type are read from a local copy and the
name defaults to the file name.

Limits: cid and name 1-100 bytes, description up to 500 bytes,
type 1-50 bytes.

Examples:
  vx register QmXoyp... photo.png --type image/png --size 2048
  vx register QmXoyp... --from-file ~/Pictures/photo.png -d "Holiday"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerDescription, "description", "d", "", "Free-text description")
	registerCmd.Flags().StringVarP(&registerType, "type", "t", "", "MIME type, e.g. image/png")
	registerCmd.Flags().Uint64VarP(&registerSize, "size", "s", 0, "Size in bytes")
	registerCmd.Flags().StringVarP(&registerFromFile, "from-file", "f", "", "Read size and type from a local file")
	registerCmd.Flags().BoolVar(&registerCopy, "copy", false, "Copy the CID to the clipboard")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	kp, err := loadSigner()
	if err != nil {
		return err
	}

	req := services.RegisterRequest{
		Owner:       kp.PublicKey(),
		ContentID:   args[0],
		Description: registerDescription,
		FileType:    registerType,
		FileSize:    registerSize,
	}
	if len(args) > 1 {
		req.Name = args[1]
	}

	if registerFromFile != "" {
		size, fileType, err := inspectFile(registerFromFile)
		if err != nil {
			return err
		}
		if req.Name == "" {
			req.Name = filepath.Base(registerFromFile)
		}
		if !cmd.Flags().Changed("type") {
			req.FileType = fileType
		}
		if !cmd.Flags().Changed("size") {
			req.FileSize = size
		}
	}

	req.Nonce = auth.NewNonce()
	req.Signature = kp.Sign(req.SigningPayload())

	resp, err := registryService.RegisterAsset(ctx, req)
	if err != nil {
		if domain.IsValidationError(err) {
			fmt.Println(ui.FormatError("Rejected: " + err.Error()))
			return err
		}
		if errors.Is(err, domain.ErrStorageExhausted) {
			fmt.Println(ui.FormatError("Registry is full"))
			fmt.Println(ui.FormatInfo("Delete assets with 'vx delete' to free space"))
			return err
		}
		fmt.Println(ui.FormatError("Failed to register asset"))
		return err
	}

	if resp.Created {
		fmt.Println(ui.FormatRocket("Registry created at " + resp.Address.String()))
	}
	fmt.Println(ui.FormatSuccess("Asset registered"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("CID", resp.Record.ContentID))
	fmt.Println(ui.RenderKeyValue("Name", resp.Record.Name))
	fmt.Println(ui.RenderKeyValue("Type", resp.Record.FileType))
	fmt.Println(ui.RenderKeyValue("Size", resp.Record.GetSizeString()))
	fmt.Println(ui.RenderKeyValue("Registered", resp.Record.GetDisplayDate(appConfig.DisplayDateFormat)))
	fmt.Println(ui.FormatMuted(fmt.Sprintf("%d records, %d registered all-time", resp.Records, resp.AssetCount)))

	if registerCopy {
		if err := clipboard.WriteAll(resp.Record.ContentID); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed)"))
		}
	}

	return nil
}

// inspectFile returns the size and sniffed MIME type of a local file
func inspectFile(path string) (uint64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, "", err
	}
	if info.IsDir() {
		return 0, "", fmt.Errorf("%s is a directory", path)
	}

	// DetectContentType considers at most 512 bytes
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	fileType := http.DetectContentType(head[:n])
	if mediaType, _, err := mime.ParseMediaType(fileType); err == nil {
		fileType = mediaType
	}

	// The sniffer cannot tell most binary formats apart; the extension can
	if fileType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
				fileType = mediaType
			}
		}
	}

	return uint64(info.Size()), fileType, nil
}
