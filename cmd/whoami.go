package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/pkg/ui"
)

var whoamiCopy bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the owner identity and registry address",
	Long: `Show the public key of the local keypair, the program ID, and the
registry address derived from them.

Examples:
  vx whoami
  vx whoami --copy`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiCopy, "copy", false, "Copy the owner public key to the clipboard")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	kp, err := loadSigner()
	if err != nil {
		return err
	}
	owner := kp.PublicKey()

	addr, bump, err := registryService.RegistryAddress(owner)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatKey(owner.String()))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Keypair", keypairPath()))
	fmt.Println(ui.RenderKeyValue("Program", registryService.ProgramID().String()))
	fmt.Println(ui.RenderKeyValue("Registry", addr.String()))
	fmt.Println(ui.RenderKeyValue("Bump", fmt.Sprintf("%d", bump)))
	fmt.Println(ui.RenderKeyValue("Storage", appConfig.Storage))

	if whoamiCopy {
		if err := clipboard.WriteAll(owner.String()); err != nil {
			fmt.Println(ui.FormatMuted("(Clipboard access failed)"))
		} else {
			fmt.Println(ui.FormatMuted("(Copied to clipboard)"))
		}
	}

	return nil
}
