package framevk

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrNoSuitableDevice   = errors.New("framevk: no suitable physical device")
	ErrNoSurfaceFormats   = errors.New("framevk: surface reports no formats")
	ErrZeroExtent         = errors.New("framevk: surface has zero area")
	ErrNoMemoryType       = errors.New("framevk: no suitable memory type")
	ErrForeignAllocator   = errors.New("framevk: buffer was not allocated by this allocator")
	ErrLiveAllocations    = errors.New("framevk: allocator destroyed with live allocations")
	ErrUnknownShaderStage = errors.New("framevk: unknown shader stage")
	ErrUnsupportedShader  = errors.New("framevk: unsupported shader source")
)

// FatalLogPath is the file Fatal appends to.
var FatalLogPath = "fatal_log.txt"

// Fatal runs finalizers, records err on stderr and in the fatal log
// and exits with status 1. A nil err is ignored.
func Fatal(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}

		fatalLog, _ := fatalLogger(os.Stderr)
		fatalLog.Fatalf("%+v", err)
	}
}

// fatalLogger writes to stderr and, when FatalLogPath can be opened,
// to that file as well. The returned func closes the file.
func fatalLogger(stderr io.Writer) (*log.Logger, func()) {
	out, done := stderr, func() {}
	file, err := os.OpenFile(FatalLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err == nil {
		out = io.MultiWriter(file, stderr)
		done = func() { file.Close() }
	}
	return log.New(out, "FATAL: ", log.Ldate|log.Ltime|log.Lshortfile), done
}
