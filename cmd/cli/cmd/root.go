package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyOSAPIKey   = "opensubtitles.apikey"
	CfgKeyOSUsername = "opensubtitles.username"
	CfgKeyOSPassword = "opensubtitles.password"
	CfgKeyOSBaseURL  = "opensubtitles.baseurl"
	CfgKeyLogLevel   = "log.level"
)

var (
	// Used for flags.
	cfgFile string

	// logger is shared by all commands and handed to the provider client.
	logger = log.New()

	// RootCmd represents the base command when called without any subcommands
	// Exported for use in tests
	RootCmd = &cobra.Command{
		Use:   "ossubs",
		Short: "Search and download subtitles from OpenSubtitles.",
		Long: `ossubs finds subtitles for local video files on OpenSubtitles.com,
ranks them by hash match and popularity, and downloads them within your
daily download allowance.`,
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute(ctx context.Context) {
	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ossubs/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag(CfgKeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{})
}

// initConfig reads in a .env file, the config file and ENV variables if set.
func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".ossubs"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("OSSUBS") // e.g. OSSUBS_OPENSUBTITLES_APIKEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}

	level, err := log.ParseLevel(viper.GetString(CfgKeyLogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
}
