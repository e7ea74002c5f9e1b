package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// Vault represents the managed storage directory for vx
type Vault struct {
	RootPath       string
	RegistriesPath string
	KeysPath       string
	CachePath      string
	ConfigPath     string
}

// New creates a new Vault instance with XDG-compliant paths
func New() (*Vault, error) {
	rootPath, rootErr := getVaultRoot()
	configPath, configErr := getConfigPath()
	if rootErr != nil {
		return nil, fmt.Errorf("failed to determine vault root: %w", rootErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return NewAt(rootPath, configPath), nil
}

// NewAt creates a Vault rooted at rootPath
func NewAt(rootPath, configPath string) *Vault {
	return &Vault{
		RootPath:       rootPath,
		RegistriesPath: filepath.Join(rootPath, "registries"),
		KeysPath:       filepath.Join(rootPath, "keys"),
		CachePath:      filepath.Join(rootPath, "cache"),
		ConfigPath:     configPath,
	}
}

// getVaultRoot returns the vault root directory path
// Follows XDG Base Directory specification on Unix and uses AppData on Windows
func getVaultRoot() (string, error) {
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "vx"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "vx"), nil
	}

	return filepath.Join(homeDir, ".local", "share", "vx"), nil
}

func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "vx", "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "vx-config", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", "vx", "config.yaml"), nil
}

// Initialize creates the vault directory structure if it doesn't exist
func (v *Vault) Initialize() error {
	directories := []string{
		v.RootPath,
		v.RegistriesPath,
		v.CachePath,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Keys hold private material
	if err := os.MkdirAll(v.KeysPath, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", v.KeysPath, err)
	}

	return nil
}

// Exists checks if the vault has been initialized
func (v *Vault) Exists() bool {
	info, err := os.Stat(v.RootPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// GetRegistryPath returns the JSON account file for a registry address
func (v *Vault) GetRegistryPath(address string) string {
	return filepath.Join(v.RegistriesPath, address+".json")
}

// GetKeyPath returns the full path for a keypair file
func (v *Vault) GetKeyPath(name string) string {
	return filepath.Join(v.KeysPath, name)
}

// DefaultKeypairPath is where `vx init` writes the owner keypair
func (v *Vault) DefaultKeypairPath() string {
	return v.GetKeyPath("id.json")
}

// GetCachePath returns the full path for a cached file
func (v *Vault) GetCachePath(filename string) string {
	return filepath.Join(v.CachePath, filename)
}

// DBPath returns the SQLite account store
func (v *Vault) DBPath() string {
	return filepath.Join(v.RootPath, "vx.db")
}

// LogPath returns the debug log file
func (v *Vault) LogPath() string {
	return filepath.Join(v.RootPath, "vx.log")
}

// TracePath returns the JSONL span file
func (v *Vault) TracePath() string {
	return filepath.Join(v.RootPath, "traces.jsonl")
}

// CleanCache removes all files in the cache directory
func (v *Vault) CleanCache() error {
	entries, err := os.ReadDir(v.CachePath)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(v.CachePath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}
