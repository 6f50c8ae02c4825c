package rpc

import (
	"context"

	"github.com/spooky-finn/go-bsdex-bridge/usecase"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName                  = "bsdexbridge.MarketDataService"
	getOrderBookSnapshotFullName = "/" + serviceName + "/GetOrderBookSnapshot"
)

// MarketDataServiceServer serves order book snapshots as described by
// proto/market_data.proto. Requests and responses are protobuf Structs:
//
//	request:  {"market": "btc-eur", "max_depth": 10}
//	response: {"market": "BTC-EUR", "status": "Ok", "bids": [["price", "size"], ...], "asks": [...], "updated_at": "..."}
type MarketDataServiceServer interface {
	GetOrderBookSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedMarketDataServiceServer can be embedded to have forward compatible
// implementations.
type UnimplementedMarketDataServiceServer struct{}

func (UnimplementedMarketDataServiceServer) GetOrderBookSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetOrderBookSnapshot not implemented")
}

type server struct {
	orderbookSnapshotUseCase *usecase.OrderBookSnapshotUseCase
	UnimplementedMarketDataServiceServer
	validationService *ValidationService
}

func NewServer(uc *usecase.OrderBookSnapshotUseCase, conf *ValidationServiceConfig) *server {
	return &server{
		orderbookSnapshotUseCase: uc,
		validationService:        NewValidationService(conf),
	}
}

func RegisterMarketDataServiceServer(s grpc.ServiceRegistrar, srv MarketDataServiceServer) {
	s.RegisterService(&marketDataServiceDesc, srv)
}

var marketDataServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MarketDataServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetOrderBookSnapshot",
			Handler:    getOrderBookSnapshotHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/market_data.proto",
}

func getOrderBookSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MarketDataServiceServer).GetOrderBookSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getOrderBookSnapshotFullName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MarketDataServiceServer).GetOrderBookSnapshot(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
