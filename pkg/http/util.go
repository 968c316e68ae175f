package http

import (
	"time"

	xutil "FinSignal/pkg/util"
)

// ParseTime reports whether s is a recognised time.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }
