package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMoreLessCmd(v *viper.Viper) *cobra.Command {
	var more bool

	cmd := &cobra.Command{
		Use:   "specifics <prefix>",
		Short: "List stored prefixes more (or less) specific than the given prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := netip.ParsePrefix(args[0])
			if err != nil {
				return fmt.Errorf("parsing query prefix: %w", err)
			}

			table, _, err := loadTable(v)
			if err != nil {
				return err
			}

			if more {
				hits, err := table.MoreSpecificsFrom(query)
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Printf("%s seen %d time(s)\n", h.Prefix, h.Meta)
				}
				return nil
			}

			hits, err := table.LessSpecificsFrom(query)
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Printf("%s seen %d time(s)\n", h.Prefix, h.Meta)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&more, "more", false, "list more-specifics instead of less-specifics")
	return cmd
}
