package main

import (
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rotonda-go/rib"
)

func newMatchCmd(v *viper.Viper) *cobra.Command {
	var exact bool

	cmd := &cobra.Command{
		Use:   "match <prefix>",
		Short: "Find the longest (or exact) stored match for a prefix",
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

			matchType := rib.MatchLongest
			if exact {
				matchType = rib.MatchExact
			}
			res, err := table.Match(query, rib.MatchOptions{Type: matchType})
			if err != nil {
				return err
			}
			if !res.Found {
				fmt.Println("no match")
				return nil
			}
			fmt.Printf("matched %s, seen %d time(s)\n", res.Matched, res.Meta)
			return nil
		},
	}

	cmd.Flags().BoolVar(&exact, "exact", false, "require an exact-length match")
	return cmd
}
