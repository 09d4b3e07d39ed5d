package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey     = "sun_source"
	serviceName      = "sleepsun.sunsource.v1.SunSource"
	jsonCodecName    = "json"
	methodDescribe   = "/" + serviceName + "/Describe"
	methodFetchTimes = "/" + serviceName + "/FetchSunTimes"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SLEEPSUN_SUN_SOURCE",
	MagicCookieValue: "sleepsun",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Description struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type SunRequest struct {
	Date string  `json:"date"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// SunResponse carries epoch seconds. A zero Daylength means sunset - sunrise.
type SunResponse struct {
	Sunrise   int64 `json:"sunrise"`
	Sunset    int64 `json:"sunset"`
	Daylength int64 `json:"daylength"`
}

type SunSourceServer interface {
	Describe(ctx context.Context, in *Empty) (*Description, error)
	FetchSunTimes(ctx context.Context, in *SunRequest) (*SunResponse, error)
}

type SunSourceClient interface {
	Describe(ctx context.Context) (*Description, error)
	FetchSunTimes(ctx context.Context, in *SunRequest) (*SunResponse, error)
}

type sunSourceClient struct {
	conn *grpc.ClientConn
}

func NewSunSourceClient(conn *grpc.ClientConn) SunSourceClient {
	return &sunSourceClient{conn: conn}
}

func (c *sunSourceClient) Describe(ctx context.Context) (*Description, error) {
	out := &Description{}
	if err := c.conn.Invoke(ctx, methodDescribe, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sunSourceClient) FetchSunTimes(ctx context.Context, in *SunRequest) (*SunResponse, error) {
	out := &SunResponse{}
	if err := c.conn.Invoke(ctx, methodFetchTimes, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterSunSourceServer(server grpc.ServiceRegistrar, impl SunSourceServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*SunSourceServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Describe",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.Describe(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDescribe}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.Describe(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "FetchSunTimes",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &SunRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.FetchSunTimes(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFetchTimes}
					handler := func(ctx context.Context, req any) (any, error) {
						sunReq, ok := req.(*SunRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.FetchSunTimes(ctx, sunReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "sunsource/v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl SunSourceServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterSunSourceServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewSunSourceClient(conn), nil
}

// PluginMap serves impl; hosts pass nil.
func PluginMap(impl SunSourceServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
