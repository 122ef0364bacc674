package transport

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"actionkit/internal/actions"
	"actionkit/internal/logging"
	"actionkit/internal/syntax"
)

type Server struct {
	grpc *grpc.Server
	lis  net.Listener
}

func Listen(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewServer(lis), nil
}

// NewServer serves the in-process actions engine on lis.
func NewServer(lis net.Listener) *Server {
	s := &Server{grpc: grpc.NewServer(), lis: lis}
	s.grpc.RegisterService(&serviceDesc, actionsService{})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s.grpc, hs)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	return s.grpc.Serve(s.lis)
}

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

type actionsService struct{}

func (actionsService) Rewrite(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	prog, comments, err := syntax.Parse(ctx, req.Path, req.Source)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	v := actions.New(req.Key, actions.Config{IsServerLayer: req.IsServerLayer, Enabled: req.Enabled}, comments)
	if err := v.VisitProgram(prog); err != nil {
		logging.L().Debug("engine: rewrite rejected", "key", req.Key, "err", err)
		return nil, status.Error(codeFor(err), err.Error())
	}
	return structpb.NewStruct(map[string]any{"source": string(syntax.Print(prog, comments))})
}

func codeFor(err error) codes.Code {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return codes.FailedPrecondition
		}
	}
	return codes.Internal
}
