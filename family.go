package rib

import "github.com/rotonda-go/rib/internal/af"

// Family identifies an address family a Table is built over.
type Family = af.Family

// The two supported address families.
const (
	IPv4 = af.IPv4
	IPv6 = af.IPv6
)

// PrefixID is the (address, length) identity carried on Hit and
// QueryResult, re-exported so callers can name the type of
// res.Matched/hit.Prefix without reaching into an internal package.
type PrefixID = af.PrefixID
