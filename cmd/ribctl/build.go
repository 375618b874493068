package main

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rotonda-go/rib"
)

// routeCount is the demo metadata type: how many times a prefix was
// seen in the loaded file. Loading the same prefix twice exercises the
// Table's RCU merge path instead of just its insert-once path.
type routeCount int

func sumMerger() rib.MergerFunc[routeCount] {
	return func(existing, incoming routeCount) routeCount { return existing + incoming }
}

func familyFromFlag(name string) (rib.Family, error) {
	switch strings.ToLower(name) {
	case "ipv4", "4":
		return rib.IPv4, nil
	case "ipv6", "6":
		return rib.IPv6, nil
	default:
		return 0, fmt.Errorf("unknown family %q, want ipv4 or ipv6", name)
	}
}

// loadTable builds a Table from v's bound flags, reading one CIDR per
// line from the --prefixes file, in the style of the teacher's own
// cmd/routes.go line-scanning loader.
func loadTable(v *viper.Viper) (*rib.Table[routeCount], int, error) {
	family, err := familyFromFlag(v.GetString("family"))
	if err != nil {
		return nil, 0, err
	}

	logger := newLogger(v.GetBool("verbose"))
	opts := []rib.Option[routeCount]{rib.WithLogger[routeCount](logger)}
	if size := v.GetInt("hot-cache"); size > 0 {
		opts = append(opts, rib.WithHotCache[routeCount](size))
	}

	table, err := rib.New[routeCount](family, sumMerger(), opts...)
	if err != nil {
		return nil, 0, fmt.Errorf("creating table: %w", err)
	}

	file, err := os.Open(v.GetString("prefixes"))
	if err != nil {
		return nil, 0, fmt.Errorf("opening prefix file: %w", err)
	}
	defer file.Close()

	var loaded int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefix, err := netip.ParsePrefix(line)
		if err != nil {
			logger.Warn("skipping unparseable line", zap.String("line", line), zap.Error(err))
			continue
		}
		if af := familyOf(prefix); af != family {
			continue
		}
		if err := table.Insert(prefix.Masked(), 1); err != nil {
			return nil, 0, fmt.Errorf("inserting %s: %w", prefix, err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading prefix file: %w", err)
	}

	return table, loaded, nil
}

func familyOf(p netip.Prefix) rib.Family {
	if p.Addr().Is4() || p.Addr().Is4In6() {
		return rib.IPv4
	}
	return rib.IPv6
}
