package transport

import (
	"errors"
	"os"
	"syscall"
)

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

func isClosedFile(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
