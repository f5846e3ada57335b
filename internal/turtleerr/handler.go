package turtleerr

import (
	"sync"

	"github.com/golang/glog"
)

// Handler is invoked with every Error right after it is constructed, a
// process-wide hook mirroring the original C library's error handler.
// Unlike that library, the default handler never terminates the process:
// TURTLE is embedded as a library, and aborting a caller's process on a
// recoverable elevation query would be a poor fit for Go.
type Handler func(*Error)

var (
	handlerMu sync.RWMutex
	handler   Handler = defaultHandler
)

// SetHandler installs a process-wide handler, replacing the default glog
// sink. Passing nil is equivalent to SetNullHandler.
func SetHandler(h Handler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		handler = nullHandler
		return
	}
	handler = h
}

// SetNullHandler disables reporting; Report still returns the Error, but
// nothing is logged.
func SetNullHandler() {
	SetHandler(nil)
}

// Report invokes the installed handler and returns err unchanged. New
// and Wrap call this themselves before returning, so every Error any
// component constructs is reported at its point of construction; it is
// exported only so a caller holding an *Error built some other way can
// still route it through the installed handler.
func Report(err *Error) *Error {
	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()
	h(err)
	return err
}

func defaultHandler(err *Error) {
	switch err.Kind {
	case LockError, UnlockError, MemoryError, LibraryError:
		glog.Errorf("%s (%s)", err.Error(), err.Location())
	default:
		glog.Warningf("%s (%s)", err.Error(), err.Location())
	}
}

func nullHandler(*Error) {}
