package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLoadCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the prefix file and print per-length node/prefix counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, loaded, err := loadTable(v)
			if err != nil {
				return err
			}
			fmt.Printf("loaded %d prefixes\n", loaded)
			for _, lvl := range table.StatsPerLevel() {
				if lvl.Nodes == 0 && lvl.Prefix == 0 {
					continue
				}
				fmt.Printf("  /%-3d nodes=%-8d prefixes=%d\n", lvl.Length, lvl.Nodes, lvl.Prefix)
			}
			return nil
		},
	}
}
