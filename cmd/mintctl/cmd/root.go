// cmd/mintctl/cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mintcart/mintcart-backend/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mintctl",
	Short: "Operate the MintCart create-product workflow",
	Long: `mintctl creates products through the factory contract with the relayer key
and reconciles journaled submissions that never reached the record API.

Settings come from the environment (same variables as the server), an
optional mintctl.yaml, and flags, in increasing priority.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return readConfigFile()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./mintctl.yaml)")
	flags.String("db-driver", "", "journal store: postgres, mongo or memory")
	flags.String("storage-driver", "", "metadata storage: ipfs or s3")
	flags.String("api-url", "", "record API base URL")
	flags.String("api-key", "", "record API key")
	flags.BoolP("verbose", "v", false, "debug logging")

	viper.BindPFlag("database.driver", flags.Lookup("db-driver"))
	viper.BindPFlag("storage.driver", flags.Lookup("storage-driver"))
	viper.BindPFlag("backend.api_url", flags.Lookup("api-url"))
	viper.BindPFlag("backend.api_key", flags.Lookup("api-key"))
	viper.BindPFlag("verbose", flags.Lookup("verbose"))

	viper.SetEnvPrefix("MINTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func readConfigFile() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mintctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	logrus.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	return nil
}

// loadConfig reads the server configuration and applies mintctl overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, viper.GetViper())
	return cfg, cfg.Validate()
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if s := v.GetString("database.driver"); s != "" {
		cfg.Database.Driver = s
	}
	if s := v.GetString("storage.driver"); s != "" {
		cfg.Storage.Driver = s
	}
	if s := v.GetString("backend.api_url"); s != "" {
		cfg.Backend.APIURL = s
	}
	if s := v.GetString("backend.api_key"); s != "" {
		cfg.Backend.APIKey = s
	}
	if s := v.GetString("blockchain.private_key"); s != "" {
		cfg.Blockchain.PrivateKey = s
	}
	if m := v.GetStringMapString("blockchain.rpc_urls"); len(m) > 0 {
		for chainID, url := range m {
			cfg.Blockchain.RPCURLs[chainID] = url
		}
	}
	if m := v.GetStringMapString("blockchain.factory_addresses"); len(m) > 0 {
		for chainID, address := range m {
			cfg.Blockchain.FactoryAddresses[chainID] = address
		}
	}
	if d := v.GetDuration("blockchain.confirm_timeout"); d > 0 {
		cfg.Blockchain.ConfirmTimeout = d
	}
}
