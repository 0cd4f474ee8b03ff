package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conletkit/console/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:          "console-tui",
		Short:        "Terminal client for a conlet web console",
		Long:         "console-tui connects to a web console server, shows the conlet previews and views the server renders and forwards what you do back to the server.",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := v.GetString("config")
			cfg, err := loadConfig(v, path)
			if err != nil {
				return err
			}
			return run(cfg, func() (*config.Config, error) { return loadConfig(v, path) })
		},
	}

	flags := rootCmd.Flags()
	flags.String("config", defaultConfigPath(), "configuration file (YAML)")
	flags.String("url", "", "console URL, e.g. http://127.0.0.1:8888/vjconsole")
	flags.String("namespace", "", "namespace the session id is saved under")
	flags.String("locale", "", "locale requested from the server")
	flags.String("session", "", "use this session id instead of a generated one")
	flags.String("store", "", "bbolt file for the session id and local data (default: in memory)")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	v.SetEnvPrefix("CONSOLE")
	v.AutomaticEnv()

	return rootCmd
}

// loadConfig reads the configuration file and applies the flags and
// CONSOLE_* environment variables on top.
func loadConfig(v *viper.Viper, path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	override := func(dst *string, key string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}
	override(&cfg.Console.URL, "url")
	override(&cfg.Console.Namespace, "namespace")
	override(&cfg.Console.Locale, "locale")
	override(&cfg.Console.SessionID, "session")
	override(&cfg.Store.Path, "store")
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "console-tui.yaml"
	}
	return filepath.Join(dir, "console-tui", "config.yaml")
}
