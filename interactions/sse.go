// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// sseFrame is one server-sent event: the joined data payload plus the
// optional event type and resumption id.
type sseFrame struct {
	event string
	id    string
	data  []byte
}

// sseScanner splits an SSE byte stream into frames. Frames end on a blank
// line; multiple "data:" lines within a frame are joined with newlines.
// The scanner is independent of how the transport chunks the bytes.
type sseScanner struct {
	r *bufio.Reader
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// next returns the next complete frame, or io.EOF when the source ends. An
// incomplete trailing frame is discarded, never yielded partially. Invalid
// UTF-8 aborts with [ErrDecode]; underlying read failures abort with
// [ErrTransport].
func (s *sseScanner) next() (*sseFrame, error) {
	frame := &sseFrame{}
	var data [][]byte

	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// A frame without its blank-line terminator is incomplete.
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: read event stream: %v", ErrTransport, err)
		}

		line = strings.TrimRight(line, "\r\n")
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("%w: invalid UTF-8 in event stream", ErrDecode)
		}

		if line == "" {
			// Blank line dispatches the frame; field-only frames (no data)
			// reset and keep scanning.
			if len(data) > 0 {
				frame.data = bytes.Join(data, []byte("\n"))
				return frame, nil
			}
			frame = &sseFrame{}
			data = nil
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue // comment
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, []byte(value))
		case "event":
			frame.event = value
		case "id":
			frame.id = value
		}
	}
}
