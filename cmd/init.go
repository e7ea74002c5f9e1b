package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/vx-cli/internal/adapters/auth"
	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/pkg/pda"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
	"github.com/kamal-hamza/vx-cli/pkg/vault"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vx vault and owner keypair",
	Long: `Initialize the vx vault directory structure and generate an owner keypair.

This creates the managed vault at ~/.local/share/vx/ with the following structure:
  - registries/ : Registry accounts (JSON store)
  - keys/       : Owner keypair (id.json)
  - cache/      : Generated reports
  - vx.db       : Registry accounts (SQLite store)

An existing keypair is never overwritten.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	fresh := !appVault.Exists()
	if fresh {
		fmt.Println(ui.FormatRocket("Initializing vx vault..."))
		fmt.Println()
	}

	if err := appVault.Initialize(); err != nil {
		fmt.Println(ui.FormatError("Failed to initialize vault"))
		return err
	}

	if _, err := os.Stat(appVault.ConfigPath); os.IsNotExist(err) {
		if err := createDefaultConfig(appVault); err != nil {
			// Config is optional
			fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Default config created"))
		}
	}

	path := keypairPath()
	kp, err := auth.GenerateKeypair()
	if err != nil {
		return err
	}
	switch err := kp.Save(path); {
	case errors.Is(err, auth.ErrKeypairExists):
		fmt.Println(ui.FormatWarning("Keypair already exists, keeping it"))
		if kp, err = auth.LoadKeypair(path); err != nil {
			return err
		}
	case err != nil:
		fmt.Println(ui.FormatError("Failed to write keypair"))
		return err
	default:
		fmt.Println(ui.FormatSuccess("Owner keypair generated"))
	}

	owner := kp.PublicKey()
	programID, err := appConfig.ProgramKey()
	if err != nil {
		return err
	}
	addr, bump, err := pda.FindProgramAddress(domain.RegistrySeeds(owner), programID)
	if err != nil {
		return err
	}

	if fresh {
		fmt.Println(ui.FormatSuccess("Vault initialized successfully!"))
	} else {
		fmt.Println(ui.FormatInfo("Vault already initialized"))
	}
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Location", appVault.RootPath))
	fmt.Println(ui.RenderKeyValue("Keypair", path))
	fmt.Println(ui.RenderKeyValue("Owner", owner.String()))
	fmt.Println(ui.RenderKeyValue("Registry", fmt.Sprintf("%s (bump %d)", addr, bump)))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Register an asset: vx register <cid> <name> --type image/png --size 2048"))
	fmt.Println(ui.FormatMuted("  2. List your assets:  vx list"))
	fmt.Println(ui.FormatMuted("  3. Browse live:       vx explore"))

	return nil
}

func createDefaultConfig(v *vault.Vault) error {
	defaultConfig := `# VX Configuration
# This file is optional - all settings have sensible defaults

# Account store: json (one file per registry) or sqlite
# storage: json

# Maximum records per registry
# registry_capacity: 300

# Owner keypair (defaults to <vault>/keys/id.json)
# keypair_path: ""

# Write debug logs to <vault>/vx.log
# debug: false

# Span export: "", file, stdout
# trace: ""
`

	configDir := filepath.Dir(v.ConfigPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(v.ConfigPath, []byte(defaultConfig), 0644)
}
