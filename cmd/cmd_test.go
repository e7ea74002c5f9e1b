package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports/mocks"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/pkg/config"
)

// TestCommandStructure verifies that all commands are properly registered
func TestCommandStructure(t *testing.T) {
	commands := []string{
		"init", "whoami", "register", "delete", "list", "show",
		"stats", "explore", "version", "config",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{cmdName})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", cmdName, err)
			}
			if cmd == nil {
				t.Fatalf("Command '%s' is nil", cmdName)
			}
			if cmd.Use == "" {
				t.Errorf("Command '%s' has no Use field", cmdName)
			}
		})
	}
}

// TestRootCommandExists verifies the root command is properly configured
func TestRootCommandExists(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("Root command is nil")
	}

	if rootCmd.Use != "vx" {
		t.Errorf("Expected root command Use to be 'vx', got '%s'", rootCmd.Use)
	}

	if rootCmd.Short == "" {
		t.Error("Root command Short description is empty")
	}
}

// TestCommandsHaveHelp verifies all commands have help text
func TestCommandsHaveHelp(t *testing.T) {
	commands := rootCmd.Commands()

	if len(commands) == 0 {
		t.Fatal("No commands registered")
	}

	for _, cmd := range commands {
		t.Run(cmd.Name(), func(t *testing.T) {
			if cmd.Short == "" {
				t.Errorf("Command '%s' has no Short description", cmd.Name())
			}
		})
	}
}

// TestServiceInitialization verifies services can be initialized with mocks
func TestServiceInitialization(t *testing.T) {
	svc := services.NewRegistryService(mocks.NewMockRegistryRepository(), mocks.NewMockAuthorizer(), services.RegistryOptions{})
	if svc == nil {
		t.Fatal("RegistryService is nil")
	}
	if svc.Capacity() != domain.DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", domain.DefaultCapacity, svc.Capacity())
	}
}

// TestSubcommands verifies specific subcommands exist
func TestSubcommands(t *testing.T) {
	tests := []struct {
		parent     string
		subcommand string
	}{
		{"config", "show"},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"_"+tt.subcommand, func(t *testing.T) {
			parentCmd, _, err := rootCmd.Find([]string{tt.parent})
			if err != nil {
				t.Fatalf("Parent command '%s' not found: %v", tt.parent, err)
			}

			found := false
			for _, cmd := range parentCmd.Commands() {
				if cmd.Name() == tt.subcommand {
					found = true
					break
				}
			}

			if !found {
				t.Errorf("Subcommand '%s' not found under '%s'", tt.subcommand, tt.parent)
			}
		})
	}
}

// TestFlagsExist verifies important flags are registered
func TestFlagsExist(t *testing.T) {
	tests := []struct {
		command  string
		flagName string
	}{
		{"register", "description"},
		{"register", "type"},
		{"register", "size"},
		{"register", "from-file"},
		{"delete", "registry"},
		{"delete", "yes"},
		{"list", "type"},
		{"list", "sort"},
		{"list", "reverse"},
		{"list", "json"},
		{"list", "owner"},
		{"show", "owner"},
		{"stats", "chart"},
		{"explore", "owner"},
		{"whoami", "copy"},
	}

	for _, tt := range tests {
		t.Run(tt.command+"_"+tt.flagName, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.command})
			if err != nil {
				t.Fatalf("Command '%s' not found: %v", tt.command, err)
			}

			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Errorf("Flag '--%s' not found on command '%s'", tt.flagName, tt.command)
			}
		})
	}
}

// TestPersistentFlags verifies the global overrides are registered
func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "storage", "keypair", "debug"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Persistent flag '--%s' not found", name)
		}
	}
}

// TestCommandAliases verifies command aliases work
func TestCommandAliases(t *testing.T) {
	tests := []struct {
		alias   string
		command string
	}{
		{"ls", "list"},
		{"add", "register"},
		{"rm", "delete"},
		{"v", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.alias})
			if err != nil {
				t.Fatalf("Alias '%s' not found: %v", tt.alias, err)
			}
			if cmd.Name() != tt.command {
				t.Errorf("Alias '%s' resolved to '%s', want '%s'", tt.alias, cmd.Name(), tt.command)
			}
		})
	}
}

// TestInitCommand verifies init command exists
func TestInitCommand(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"init"})
	if err != nil {
		t.Fatalf("Init command not found: %v", err)
	}

	// Init should not require vault initialization
	if cmd.PersistentPreRunE != nil {
		t.Error("Init command should not have PersistentPreRunE")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Cleanup(func() {
		viper.Set("storage", "")
		viper.Set("keypair_path", "")
	})

	viper.Set("storage", config.StorageSQLite)
	viper.Set("keypair_path", "/tmp/other.json")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Storage != config.StorageSQLite {
		t.Errorf("Expected storage override 'sqlite', got '%s'", cfg.Storage)
	}
	if cfg.KeypairPath != "/tmp/other.json" {
		t.Errorf("Expected keypair override, got '%s'", cfg.KeypairPath)
	}
}

func TestLoadConfig_RejectsBadStorage(t *testing.T) {
	t.Cleanup(func() { viper.Set("storage", "") })

	viper.Set("storage", "postgres")
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for unknown storage backend")
	}
}

func TestInspectFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name     string
		path     string
		wantType string
		wantSize uint64
	}{
		{"png by content", write("pic.bin", []byte("\x89PNG\r\n\x1a\n0000")), "image/png", 12},
		{"text drops charset", write("notes", []byte("hello world")), "text/plain", 11},
		{"binary falls back to extension", write("doc.pdf.x", []byte{0, 1, 2, 3}), "application/octet-stream", 4},
		{"extension wins over octet-stream", write("data.pdf", []byte{0, 1, 2}), "application/pdf", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, fileType, err := inspectFile(tt.path)
			if err != nil {
				t.Fatalf("inspectFile failed: %v", err)
			}
			if fileType != tt.wantType {
				t.Errorf("Expected type '%s', got '%s'", tt.wantType, fileType)
			}
			if size != tt.wantSize {
				t.Errorf("Expected size %d, got %d", tt.wantSize, size)
			}
		})
	}

	t.Run("directory", func(t *testing.T) {
		if _, _, err := inspectFile(dir); err == nil {
			t.Error("Expected error for directory")
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, _, err := inspectFile(filepath.Join(dir, "nope")); err == nil {
			t.Error("Expected error for missing file")
		}
	})
}

func TestUsageBar(t *testing.T) {
	if got := usageBar(10, 0, 10); got != "" {
		t.Errorf("Expected empty bar for zero total, got %q", got)
	}
	if got := usageBar(50, 100, 10); !strings.Contains(got, "50.0%") {
		t.Errorf("Expected 50.0%% in %q", got)
	}
	// Overfull accounts clamp the bar but report the real ratio
	if got := usageBar(150, 100, 10); !strings.Contains(got, "150.0%") {
		t.Errorf("Expected 150.0%% in %q", got)
	}
}

func TestAssetPreview_WarnsOnSharedCID(t *testing.T) {
	a := domain.AssetRecord{ContentID: "Qm123", Name: "one", FileType: "image/png"}
	b := domain.AssetRecord{ContentID: "Qm123", Name: "two", FileType: "image/png"}
	c := domain.AssetRecord{ContentID: "Qm456", Name: "three", FileType: "text/plain"}

	preview := assetPreview(a, []domain.AssetRecord{a, b, c})
	if !strings.Contains(preview, "2 records share this CID") {
		t.Errorf("Expected shared-CID warning, got:\n%s", preview)
	}

	preview = assetPreview(c, []domain.AssetRecord{a, b, c})
	if strings.Contains(preview, "share this CID") {
		t.Errorf("Unexpected shared-CID warning for unique record:\n%s", preview)
	}
}

func TestRenderAssetTable(t *testing.T) {
	appConfig = config.DefaultConfig()
	t.Cleanup(func() { appConfig = nil })

	out := renderAssetTable([]domain.AssetRecord{
		{ContentID: "Qm123", Name: "photo.png", FileType: "image/png", FileSize: 2048},
	})
	for _, want := range []string{"Name", "photo.png", "image/png", "Qm123"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table:\n%s", want, out)
		}
	}
}
