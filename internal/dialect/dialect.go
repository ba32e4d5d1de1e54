// Package dialect names the two tracker conventions the engine understands.
// XM-style and IT-style scores share the same positional data shape but
// disagree on effect meanings and on envelope boundary comparisons.
package dialect

import (
	"fmt"
	"strings"
)

type Dialect int

const (
	XM Dialect = iota
	IT
)

func (d Dialect) String() string {
	switch d {
	case XM:
		return "xm"
	case IT:
		return "it"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Parse accepts the usual file extensions of each family as aliases.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "xm", "mod", "ft2", "fasttracker":
		return XM, nil
	case "it", "s3m", "mpt", "impulsetracker":
		return IT, nil
	default:
		return XM, fmt.Errorf("unknown dialect %q (expected xm|it)", name)
	}
}
