package http

import (
	"time"

	xutil "MarketBrief/pkg/util"
)

// ParseIntDefault parses s or returns def if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseTime accepts RFC3339 or unix seconds/milliseconds.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }
