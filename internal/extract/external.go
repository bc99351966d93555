package extract

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
	"github.com/jmylchreest/tinct-cosmic/internal/security"
	"github.com/jmylchreest/tinct-cosmic/pkg/plugin"
)

// externalBackend runs an extraction backend binary over the go-plugin protocol.
type externalBackend struct {
	path   string
	logger hclog.Logger
}

// extract launches the plugin, asks it for colours and kills it again.
// Colours are weighted by the order the plugin returned them in.
func (b *externalBackend) extract(ctx context.Context, wallpaper string, cfg Config) ([]weighted, error) {
	if err := security.ValidatePluginPath(b.path); err != nil {
		return nil, err
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: plugin.Handshake,
		Plugins: map[string]goplugin.Plugin{
			plugin.BackendPluginName: &plugin.BackendRPC{},
		},
		Cmd:              exec.CommandContext(ctx, b.path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           b.logger.Named("plugin"),
	})
	defer client.Kill()

	rpcClient, err := client.Client()
	if err != nil {
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense(plugin.BackendPluginName)
	if err != nil {
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	backend, ok := raw.(*plugin.BackendRPCClient)
	if !ok {
		return nil, fmt.Errorf("plugin %s dispensed unexpected type %T", b.path, raw)
	}

	if info, err := backend.GetMetadata(); err == nil {
		b.logger.Debug("external backend loaded", "name", info.Name, "version", info.Version,
			"protocol", info.ProtocolVersion)
	}

	resp, err := backend.Extract(ctx, plugin.ExtractRequest{
		ImagePath: wallpaper,
		Colours:   cfg.Colours,
		Threshold: cfg.Threshold,
		Mode:      string(cfg.Mode),
	})
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", b.path, err)
	}

	return parseHexColours(resp.Colours)
}

// parseHexColours converts an ordered list of hex strings into weighted colours.
// Earlier colours weigh more.
func parseHexColours(hexes []string) ([]weighted, error) {
	out := make([]weighted, 0, len(hexes))
	for i, h := range hexes {
		c, err := colour.ParseHex(h)
		if err != nil {
			return nil, fmt.Errorf("colour %d: %w", i, err)
		}
		out = append(out, weighted{c: c, weight: float64(len(hexes)-i) / float64(len(hexes))})
	}
	return out, nil
}
