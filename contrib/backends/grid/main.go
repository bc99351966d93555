// grid - Grid Average Extraction Backend (tinct-cosmic example backend)
//
// Splits the wallpaper into a grid of cells and returns the average colour
// of each cell, most common first. Shows how to ship an extraction backend
// as a separate binary using the go-plugin RPC protocol.
//
// Build:
//   go build -o grid
//
// Usage:
//   tinct-cosmic generate -w wall.jpg --backend plugin:/path/to/grid
//
// Author: Tinct Contributors
// License: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	"github.com/jmylchreest/tinct-cosmic/pkg/plugin"
)

// GridBackend implements the plugin.Backend interface.
type GridBackend struct{}

// Extract averages the image over a grid with at least req.Colours cells.
func (b *GridBackend) Extract(ctx context.Context, req plugin.ExtractRequest) (plugin.ExtractResponse, error) {
	f, err := os.Open(req.ImagePath) // #nosec G304 - Path is chosen by the host
	if err != nil {
		return plugin.ExtractResponse{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return plugin.ExtractResponse{}, fmt.Errorf("failed to decode image: %w", err)
	}

	side := 1
	for side*side < max(req.Colours, 1) {
		side++
	}

	counts := make(map[string]int)
	bounds := img.Bounds()
	for gy := range side {
		for gx := range side {
			if err := ctx.Err(); err != nil {
				return plugin.ExtractResponse{}, err
			}
			cell := image.Rect(
				bounds.Min.X+gx*bounds.Dx()/side, bounds.Min.Y+gy*bounds.Dy()/side,
				bounds.Min.X+(gx+1)*bounds.Dx()/side, bounds.Min.Y+(gy+1)*bounds.Dy()/side,
			)
			if cell.Empty() {
				continue
			}
			counts[average(img, cell)]++
		}
	}

	colours := make([]string, 0, len(counts))
	for hex := range counts {
		colours = append(colours, hex)
	}
	sort.Slice(colours, func(i, j int) bool {
		if counts[colours[i]] != counts[colours[j]] {
			return counts[colours[i]] > counts[colours[j]]
		}
		return colours[i] < colours[j]
	})

	return plugin.ExtractResponse{Colours: colours}, nil
}

// GetMetadata returns plugin metadata.
func (b *GridBackend) GetMetadata() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:            "grid",
		Version:         "0.0.1",
		ProtocolVersion: plugin.ProtocolVersion,
		Description:     "Average colour of each cell of a grid laid over the wallpaper",
	}
}

// average returns the mean colour of r as #rrggbb.
func average(img image.Image, r image.Rectangle) string {
	var sr, sg, sb, n uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			sr += uint64(c.R)
			sg += uint64(c.G)
			sb += uint64(c.B)
			n++
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", sr/n, sg/n, sb/n)
}

func main() {
	// Handle --plugin-info flag
	if len(os.Args) > 1 && os.Args[1] == "--plugin-info" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode((&GridBackend{}).GetMetadata()); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding plugin info: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	plugin.Serve(&GridBackend{})
}
