package docker

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

// maxLineSize bounds a single relayed line; longer lines fail the stream.
const maxLineSize = 1024 * 1024

// lineStream turns a multiplexed Docker log stream into combined lines.
type lineStream struct {
	src     io.ReadCloser
	pipe    *io.PipeReader
	scanner *bufio.Scanner
	line    string
	err     error

	onClose   func() error
	closeOnce sync.Once
	closeErr  error
}

var _ domain.LineStream = (*lineStream)(nil)

func newLineStream(src io.ReadCloser, onClose func() error) *lineStream {
	pr, pw := io.Pipe()
	go func() {
		// stdout and stderr frames are written in the order Docker sent them.
		_, err := stdcopy.StdCopy(pw, pw, src)
		pw.CloseWithError(err)
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &lineStream{
		src:     src,
		pipe:    pr,
		scanner: scanner,
		onClose: onClose,
	}
}

func (s *lineStream) Next() bool {
	if s.err != nil {
		return false
	}
	if s.scanner.Scan() {
		s.line = s.scanner.Text()
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = domain.BackendError(dockerHostMessage, fmt.Errorf("failed to read container output: %w", err))
	}
	return false
}

func (s *lineStream) Line() string {
	return s.line
}

func (s *lineStream) Err() error {
	return s.err
}

func (s *lineStream) Close() error {
	s.closeOnce.Do(func() {
		s.pipe.Close()
		s.src.Close()
		if s.onClose != nil {
			s.closeErr = s.onClose()
		}
	})
	return s.closeErr
}
