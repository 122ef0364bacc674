// Package transport carries rewrite requests between the pipeline and an
// out-of-process engine over gRPC. Messages are google.protobuf.Struct so
// the service needs no generated stubs.
package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"actionkit/internal/identity"
)

const (
	ServiceName   = "actionkit.engine.v1.Engine"
	rewriteMethod = "/" + ServiceName + "/Rewrite"
)

type RewriteRequest struct {
	Key           identity.Key
	Path          string
	Source        []byte
	IsServerLayer bool
	Enabled       bool
}

func (r RewriteRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"key":             string(r.Key),
		"path":            r.Path,
		"source":          string(r.Source),
		"is_server_layer": r.IsServerLayer,
		"enabled":         r.Enabled,
	})
}

func requestFromStruct(s *structpb.Struct) (RewriteRequest, error) {
	f := s.GetFields()
	req := RewriteRequest{
		Key:           identity.Key(f["key"].GetStringValue()),
		Path:          f["path"].GetStringValue(),
		Source:        []byte(f["source"].GetStringValue()),
		IsServerLayer: f["is_server_layer"].GetBoolValue(),
		Enabled:       f["enabled"].GetBoolValue(),
	}
	if req.Key == "" || req.Path == "" {
		return req, fmt.Errorf("transport: request without key or path")
	}
	return req, nil
}

// engineServer is the handler type registered under ServiceName.
type engineServer interface {
	Rewrite(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*engineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rewrite", Handler: rewriteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "actionkit/engine/v1/engine.proto",
}

func rewriteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(engineServer).Rewrite(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: rewriteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(engineServer).Rewrite(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
