package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/spooky-finn/go-bsdex-bridge/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *server) GetOrderBookSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	market := fields["market"].GetStringValue()
	maxDepth := fields["max_depth"].GetNumberValue()

	instrument, err := domain.NewInstrument(market)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid market %q", market)
	}
	if !s.validationService.IsSupportedInstrument(instrument) {
		return nil, status.Errorf(codes.InvalidArgument, "market %s is not supported", instrument)
	}
	if maxDepth < 0 || maxDepth != float64(int(maxDepth)) {
		return nil, status.Errorf(codes.InvalidArgument, "max_depth must be a non-negative integer, got %v", maxDepth)
	}

	snapshot, err := s.orderbookSnapshotUseCase.GetOrderBookSnapshot(instrument, int(maxDepth))
	if errors.Is(err, domain.ErrOrderBookNotFound) {
		return nil, status.Errorf(codes.NotFound, "order book for %s is not replicated yet", instrument)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"market":     instrument.String(),
		"status":     string(snapshot.Status),
		"bids":       serializePriceLevel(snapshot.Bids),
		"asks":       serializePriceLevel(snapshot.Asks),
		"updated_at": snapshot.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return out, nil
}

// serializePriceLevel renders levels as [price, size] string pairs in the scale they were
// received with.
func serializePriceLevel(levels []domain.PriceLevel) []interface{} {
	result := make([]interface{}, len(levels))
	for i, level := range levels {
		result[i] = []interface{}{domain.FormatDecimal(level.Price), domain.FormatDecimal(level.Size)}
	}

	return result
}
