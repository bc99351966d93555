// Package plugin provides the public API for tinct-cosmic extraction backends.
package plugin

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// BackendRPC implements the go-plugin Plugin interface for extraction backends.
type BackendRPC struct {
	plugin.Plugin
	Impl Backend
}

// Server returns an RPC server for this plugin.
func (p *BackendRPC) Server(*plugin.MuxBroker) (any, error) {
	return &BackendRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *BackendRPC) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &BackendRPCClient{client: c}, nil
}

// BackendRPCServer is the RPC server implementation for extraction backends.
type BackendRPCServer struct {
	Impl Backend
}

// Extract implements the RPC method for colour extraction.
func (s *BackendRPCServer) Extract(req ExtractRequest, resp *ExtractResponse) error {
	result, err := s.Impl.Extract(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

// GetMetadata implements the RPC method for fetching plugin metadata.
func (s *BackendRPCServer) GetMetadata(_ any, resp *PluginInfo) error {
	*resp = s.Impl.GetMetadata()
	return nil
}

// BackendRPCClient is the RPC client implementation for extraction backends.
type BackendRPCClient struct {
	client *rpc.Client
}

// Extract calls the remote Extract method. The call is abandoned if ctx ends first.
func (c *BackendRPCClient) Extract(ctx context.Context, req ExtractRequest) (ExtractResponse, error) {
	var resp ExtractResponse
	call := c.client.Go("Plugin.Extract", req, &resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return ExtractResponse{}, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return ExtractResponse{}, &RPCError{Message: done.Error.Error()}
		}
		return resp, nil
	}
}

// GetMetadata calls the remote GetMetadata method.
func (c *BackendRPCClient) GetMetadata() (PluginInfo, error) {
	var info PluginInfo
	err := c.client.Call("Plugin.GetMetadata", new(any), &info)
	return info, err
}

// PluginMap returns the plugin set served by a backend binary.
func PluginMap(impl Backend) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		BackendPluginName: &BackendRPC{Impl: impl},
	}
}

// Serve runs impl as a go-plugin backend. It blocks until the host disconnects.
func Serve(impl Backend) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
	})
}

// RPCError represents an error returned from an RPC call.
type RPCError struct {
	Message string
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}
