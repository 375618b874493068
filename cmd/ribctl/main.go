// Command ribctl is a demonstration CLI over package rib: it loads a
// CIDR-per-line prefix file into a Table, then answers match and
// enumeration queries against it and prints per-level statistics.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
