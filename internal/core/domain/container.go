package domain

// RunSpec describes the single container a relay run starts.
type RunSpec struct {
	Image      string
	Command    []string
	AutoRemove bool
}

// ContainerHandle represents a started container (Docker, Podman, etc.)
// together with its live combined output.
type ContainerHandle struct {
	ID     string
	Output LineStream
}

// LineStream is a pull-based sequence of output lines. It follows the
// bufio.Scanner shape: call Next until it returns false, then check Err.
type LineStream interface {
	Next() bool
	Line() string
	Err() error
	Close() error
}
