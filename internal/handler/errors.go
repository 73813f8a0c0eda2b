package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/prodoxx/myqa-is/internal/errs"
	"github.com/prodoxx/myqa-is/pkg/helpers"
)

// toStatus maps a service error onto a gRPC status. Domain errors carry their
// code as the message prefix so clients can branch on it.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	domainErr, ok := errs.As(err)
	if !ok {
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
	return status.Errorf(codeFor(domainErr), "%s: %v", domainErr.Code, err)
}

func codeFor(e *errs.Error) codes.Code {
	switch e.Kind {
	case errs.KindValidation:
		return codes.InvalidArgument
	case errs.KindPolicy:
		if e == errs.ErrRateLimitExceeded {
			return codes.ResourceExhausted
		}
		return codes.FailedPrecondition
	case errs.KindState:
		return codes.FailedPrecondition
	case errs.KindArithmetic:
		return codes.OutOfRange
	case errs.KindExternal:
		if e == errs.ErrInsufficientFunds {
			return codes.FailedPrecondition
		}
		return codes.Unavailable
	case errs.KindAuthorization:
		return codes.PermissionDenied
	case errs.KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// invalidArgument reports request validation failures as structured JSON.
func invalidArgument(err error) error {
	if fields := helpers.FieldErrors(err); fields != nil {
		return status.Error(codes.InvalidArgument, helpers.EncodeValidationError(fields))
	}
	return status.Error(codes.InvalidArgument, err.Error())
}
