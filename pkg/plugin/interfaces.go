// Package plugin provides the public API for tinct-cosmic extraction backends.
package plugin

import (
	"context"
)

// Backend is the interface that external extraction backends implement.
type Backend interface {
	// Extract returns the dominant colours of the requested image, most dominant first.
	// The host merges near-duplicates and builds the final palette.
	Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, error)

	// GetMetadata returns plugin metadata.
	GetMetadata() PluginInfo
}
