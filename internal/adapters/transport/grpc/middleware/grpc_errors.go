package middleware

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/videotube/internal/domain/user/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInterceptor turns domain errors returned by handlers into gRPC statuses.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return resp, mapError(err)
		}
		return resp, nil
	}
}

func mapError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := customErrors.Message(err)
	switch {
	case errors.Is(err, customErrors.ErrInternal):
		return status.Error(codes.Internal, msg)
	case errors.Is(err, customErrors.ErrInvalidArgument), errors.Is(err, customErrors.ErrUpload):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, customErrors.ErrInvalidCredentials), errors.Is(err, customErrors.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, msg)
	case errors.Is(err, customErrors.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, msg)
	case errors.Is(err, customErrors.ErrNotFound):
		return status.Error(codes.NotFound, msg)
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
