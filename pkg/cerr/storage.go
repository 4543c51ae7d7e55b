package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/taskforge/pkg/storage"
)

func WrapStorageReadError(target string, err error) error {
	return wrapStorageError("read", target, err)
}

func WrapStorageWriteError(target string, err error) error {
	return wrapStorageError("write", target, err)
}

func WrapStorageDeleteError(target string, err error) error {
	return wrapStorageError("delete", target, err)
}

func wrapStorageError(op, target string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound) && op != "write":
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	case errors.Is(err, storage.ErrInvalidPath):
		return NewError(InvalidArgument, fmt.Sprintf("invalid %s id", target), err)
	default:
		return NewError(Internal, "server error", fmt.Errorf("failed to %s %s: %w", op, target, err))
	}
}
