package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kamal-hamza/vx-cli/internal/adapters/auth"
	"github.com/kamal-hamza/vx-cli/internal/adapters/repository"
	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/core/services"
	"github.com/kamal-hamza/vx-cli/internal/log"
	"github.com/kamal-hamza/vx-cli/internal/tracing"
	"github.com/kamal-hamza/vx-cli/pkg/config"
	"github.com/kamal-hamza/vx-cli/pkg/ui"
	"github.com/kamal-hamza/vx-cli/pkg/vault"
)

var (
	// Global vault and config
	appVault  *vault.Vault
	appConfig *config.Config
	cfgFile   string

	// Services
	registryService *services.RegistryService

	// Repositories
	registryRepo ports.RegistryRepository
	cachedRepo   *repository.CachedRegistryRepository // nil when caching is off
	sqliteRepo   *repository.SQLiteRegistryRepository // nil for the JSON store

	// Diagnostics
	tracer     *tracing.Provider
	logCleanup func()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vx",
	Short: "VX - A per-owner asset registry",
	Long: ui.StyleTitle.Render("VX") + " - Asset Vault\n\n" +
		"Register content-addressed assets (IPFS CIDs) under your own key.\n" +
		"Each owner gets one registry at an address derived from their public key.",
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: $XDG_CONFIG_HOME/vx/config.yaml)")
	rootCmd.PersistentFlags().String("storage", "", "Account store: json or sqlite")
	rootCmd.PersistentFlags().String("keypair", "", "Owner keypair file")
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug logs to the vault log file")

	_ = viper.BindPFlag("storage", rootCmd.PersistentFlags().Lookup("storage"))
	_ = viper.BindPFlag("keypair_path", rootCmd.PersistentFlags().Lookup("keypair"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetEnvPrefix("VX")
	viper.AutomaticEnv()
	_ = viper.BindEnv("program_id")
	_ = viper.BindEnv("registry_capacity")
	_ = viper.BindEnv("trace")
}

// initializeApp initializes the application components
func initializeApp(cmd *cobra.Command, args []string) error {
	// Version needs nothing
	if cmd.Name() == "version" {
		return nil
	}

	v, err := vault.New()
	if err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}
	if cfgFile != "" {
		v.ConfigPath = cfgFile
	}
	appVault = v

	cfg, err := loadConfig(appVault.ConfigPath)
	if err != nil {
		return err
	}
	appConfig = cfg
	ui.SetTheme(appConfig.ColorTheme)

	if appConfig.Debug {
		cleanup, err := log.Init(appVault.LogPath())
		if err != nil {
			return err
		}
		logCleanup = cleanup
		log.SetMinLevel(log.ParseLevel(appConfig.LogLevel))
		log.Info(log.CatCLI, "starting", "command", cmd.CommandPath(), "storage", appConfig.Storage)
	}

	// Init only needs vault and config
	if cmd.Name() == "init" {
		return nil
	}

	if !appVault.Exists() {
		fmt.Println(ui.FormatError("Vault not initialized"))
		fmt.Println(ui.FormatInfo("Run 'vx init' to initialize the vault"))
		os.Exit(1)
	}

	tracer, err = tracing.NewProvider(tracing.Config{
		Enabled:     appConfig.Trace != "",
		Exporter:    appConfig.Trace,
		FilePath:    appVault.TracePath(),
		ServiceName: "vx",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeRepository(); err != nil {
		return err
	}

	programID, err := appConfig.ProgramKey()
	if err != nil {
		return err
	}

	registryService = services.NewRegistryService(registryRepo, auth.NewSignatureAuthorizer(), services.RegistryOptions{
		ProgramID: programID,
		Capacity:  appConfig.RegistryCapacity,
		Tracer:    tracer.Tracer(),
	})

	return nil
}

// loadConfig reads the YAML config and layers flag and VX_* env overrides on top
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if viper.IsSet("storage") && viper.GetString("storage") != "" {
		cfg.Storage = viper.GetString("storage")
	}
	if viper.IsSet("keypair_path") && viper.GetString("keypair_path") != "" {
		cfg.KeypairPath = viper.GetString("keypair_path")
	}
	if viper.GetBool("debug") {
		cfg.Debug = true
	}
	if viper.IsSet("program_id") {
		cfg.ProgramID = viper.GetString("program_id")
	}
	if viper.IsSet("registry_capacity") {
		cfg.RegistryCapacity = viper.GetInt("registry_capacity")
	}
	if viper.IsSet("trace") {
		cfg.Trace = viper.GetString("trace")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initializeRepository() error {
	switch appConfig.Storage {
	case config.StorageSQLite:
		repo, err := repository.NewSQLiteRegistryRepository(appVault.DBPath(), appConfig.RegistryCapacity)
		if err != nil {
			return fmt.Errorf("failed to open account store: %w", err)
		}
		sqliteRepo = repo
		registryRepo = repo
	default:
		registryRepo = repository.NewFileRegistryRepository(appVault)
	}

	if appConfig.EnableCache {
		ttl := time.Duration(appConfig.CacheExpirationMinutes) * time.Minute
		cachedRepo = repository.NewCachedRegistryRepository(registryRepo, ttl)
		registryRepo = cachedRepo
	}
	return nil
}

// shutdownApp flushes spans and closes open stores
func shutdownApp(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if tracer != nil {
		if err := tracer.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatCLI, "tracer shutdown failed", err)
		}
	}
	if sqliteRepo != nil {
		_ = sqliteRepo.Close()
	}
	if logCleanup != nil {
		logCleanup()
	}
	return nil
}

// getContext returns a context for operations
func getContext() context.Context {
	return context.Background()
}

// keypairPath resolves the owner keypair file from flag, config, or the vault default
func keypairPath() string {
	if appConfig != nil && appConfig.KeypairPath != "" {
		return appConfig.KeypairPath
	}
	return appVault.DefaultKeypairPath()
}

// loadSigner loads the owner keypair used to sign mutations
func loadSigner() (*auth.Keypair, error) {
	return auth.LoadKeypair(keypairPath())
}

// resolveOwner returns the owner named by ownerFlag, or the local keypair's
// identity when the flag is empty
func resolveOwner(ownerFlag string) (domain.PublicKey, error) {
	if ownerFlag != "" {
		return domain.ParsePublicKey(ownerFlag)
	}
	kp, err := loadSigner()
	if err != nil {
		return domain.PublicKey{}, err
	}
	return kp.PublicKey(), nil
}
