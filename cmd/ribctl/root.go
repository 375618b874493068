package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "ribctl",
		Short: "Inspect a rib.Table built from a CIDR-per-line prefix file",
	}

	root.PersistentFlags().String("config", "", "config file (optional; overrides defaults)")
	root.PersistentFlags().String("family", "ipv4", "address family: ipv4 or ipv6")
	root.PersistentFlags().String("prefixes", "", "path to a CIDR-per-line prefix file (required)")
	root.PersistentFlags().Int("hot-cache", 0, "size of the read-through match cache, 0 disables it")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")

	_ = v.BindPFlag("family", root.PersistentFlags().Lookup("family"))
	_ = v.BindPFlag("prefixes", root.PersistentFlags().Lookup("prefixes"))
	_ = v.BindPFlag("hot-cache", root.PersistentFlags().Lookup("hot-cache"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
			v.SetConfigFile(cfgFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		if v.GetString("prefixes") == "" {
			return fmt.Errorf("--prefixes is required")
		}
		return nil
	}

	root.AddCommand(newLoadCmd(v), newMatchCmd(v), newMoreLessCmd(v))
	return root
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	return zap.NewNop()
}
