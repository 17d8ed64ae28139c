package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// outlineSettleDelay lets editors finish writing before an outline is reloaded.
	outlineSettleDelay = 500 * time.Millisecond
)
