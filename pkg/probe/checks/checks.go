// SPDX-License-Identifier: MPL-2.0

// Package checks registers the built-in check kinds with pkg/probe. Import it
// for its side effects in every binary that runs probes, so that re-executed
// execution units see the same table:
//
//	import _ "conu-cli/pkg/probe/checks"
package checks

import (
	"errors"
	"io"
	"io/fs"
	"syscall"

	"conu-cli/internal/container"
	"conu-cli/pkg/probe"

	"github.com/redis/go-redis/v9"
)

// Check names.
const (
	FileExists     = "file-exists"
	HTTP           = "http"
	TCP            = "tcp"
	Shell          = "shell"
	ContainerState = "container-state"
	ContainerFile  = "container-file"
	MongoPing      = "mongo-ping"
	RedisPing      = "redis-ping"
)

// Error kinds registered by this package.
const (
	KindNotExist          = "not-exist"
	KindConnectionRefused = "connection-refused"
	KindEOF               = "eof"
	KindContainerNotFound = "container-not-found"
	KindEngineTransient   = "engine-transient"
	KindRedisNil          = "redis-nil"
	KindUnavailable       = "unavailable"
)

var (
	// ErrUnavailable marks a dependency that could not be reached at all.
	ErrUnavailable = errors.New("service unavailable")
	// ErrEngineTransient marks a container engine failure that may go away on retry.
	ErrEngineTransient = errors.New("transient container engine error")
)

func init() {
	probe.RegisterErrorKind(KindNotExist, fs.ErrNotExist)
	probe.RegisterErrorKind(KindConnectionRefused, syscall.ECONNREFUSED)
	probe.RegisterErrorKind(KindEOF, io.EOF)
	probe.RegisterErrorKind(KindContainerNotFound, container.ErrContainerNotFound)
	probe.RegisterErrorKind(KindEngineTransient, ErrEngineTransient)
	probe.RegisterErrorKind(KindRedisNil, redis.Nil)
	probe.RegisterErrorKind(KindUnavailable, ErrUnavailable)

	probe.Register(FileExists, fileExists)
	probe.Register(HTTP, httpCheck)
	probe.Register(TCP, tcpCheck)
	probe.Register(Shell, shellCheck)
	probe.Register(ContainerState, containerState)
	probe.Register(ContainerFile, containerFile)
	probe.Register(MongoPing, mongoPing)
	probe.Register(RedisPing, redisPing)
}
