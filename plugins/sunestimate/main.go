// Command sunestimate is a sun source plugin answering from the offline
// solar estimate. Point sun.plugin.binary at it to run without network
// access.
package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-plugin"

	recorddomain "sleepsun/internal/modules/record/domain"
	sunrpc "sleepsun/internal/modules/suntimes/adapter/out/rpc"
	suntimesdomain "sleepsun/internal/modules/suntimes/domain"
)

type server struct{}

func (s *server) Describe(_ context.Context, _ *sunrpc.Empty) (*sunrpc.Description, error) {
	return &sunrpc.Description{Name: "sunestimate", Version: "1.0.0"}, nil
}

func (s *server) FetchSunTimes(_ context.Context, in *sunrpc.SunRequest) (*sunrpc.SunResponse, error) {
	key, err := recorddomain.NewSunKey(in.Date, in.Lat, in.Lon)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	record, err := suntimesdomain.Estimate(key)
	if err != nil {
		return nil, err
	}
	return &sunrpc.SunResponse{Sunrise: record.Sunrise, Sunset: record.Sunset, Daylength: record.Daylength}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: sunrpc.HandshakeConfig,
		Plugins:         sunrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
