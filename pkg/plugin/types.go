// Package plugin provides the public API for tinct-cosmic extraction backends.
package plugin

// ExtractRequest describes one extraction call.
type ExtractRequest struct {
	// ImagePath is the absolute path of the wallpaper.
	ImagePath string `json:"image_path"`

	// Colours is the number of colours the host would like back.
	Colours int `json:"colours"`

	// Threshold is the host's merge threshold, passed for backends that dedupe themselves.
	Threshold int `json:"threshold"`

	// Mode is "dark" or "light".
	Mode string `json:"mode"`
}

// ExtractResponse carries the extracted colours as "#rrggbb" strings.
type ExtractResponse struct {
	Colours []string `json:"colours"`
}
