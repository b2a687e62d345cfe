// Copyright (c) Microsoft. All rights reserved.

package interactions

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collectFrames(t *testing.T, input string) []*sseFrame {
	t.Helper()
	s := newSSEScanner(strings.NewReader(input))
	var frames []*sseFrame
	for {
		f, err := s.next()
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		frames = append(frames, f)
	}
}

func TestSSEScannerBasicFrames(t *testing.T) {
	input := "event: interaction.start\ndata: {\"a\":1}\n\n" +
		"id: ev-2\ndata: {\"b\":2}\n\n"
	frames := collectFrames(t, input)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[0].event != "interaction.start" || string(frames[0].data) != `{"a":1}` {
		t.Errorf("frame 0 = %+v", frames[0])
	}
	if frames[1].id != "ev-2" || string(frames[1].data) != `{"b":2}` {
		t.Errorf("frame 1 = %+v", frames[1])
	}
}

func TestSSEScannerMultiLineData(t *testing.T) {
	input := "data: line one\ndata: line two\n\n"
	frames := collectFrames(t, input)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if string(frames[0].data) != "line one\nline two" {
		t.Errorf("data = %q", frames[0].data)
	}
}

func TestSSEScannerCRLFAndComments(t *testing.T) {
	input := ": keepalive\r\ndata: {\"x\":1}\r\n\r\n"
	frames := collectFrames(t, input)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if string(frames[0].data) != `{"x":1}` {
		t.Errorf("data = %q", frames[0].data)
	}
}

func TestSSEScannerFieldWithoutSpace(t *testing.T) {
	frames := collectFrames(t, "data:{\"x\":1}\n\n")
	if len(frames) != 1 || string(frames[0].data) != `{"x":1}` {
		t.Fatalf("frames = %+v", frames)
	}
}

func TestSSEScannerBlankFramesSkipped(t *testing.T) {
	// Blank lines and frames carrying only non-data fields dispatch nothing.
	input := "\n\nevent: ping\n\ndata: real\n\n"
	frames := collectFrames(t, input)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if string(frames[0].data) != "real" {
		t.Errorf("data = %q", frames[0].data)
	}
	if frames[0].event != "" {
		t.Errorf("event %q leaked from the skipped frame", frames[0].event)
	}
}

func TestSSEScannerTrailingFrameDiscarded(t *testing.T) {
	// A frame not terminated by a blank line before EOF never dispatches.
	input := "data: complete\n\ndata: partial"
	frames := collectFrames(t, input)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if string(frames[0].data) != "complete" {
		t.Errorf("data = %q", frames[0].data)
	}
}

func TestSSEScannerInvalidUTF8(t *testing.T) {
	s := newSSEScanner(strings.NewReader("data: \xff\xfe\n\n"))
	_, err := s.next()
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

// errAfterReader yields its content and then a non-EOF error.
type errAfterReader struct {
	r   io.Reader
	err error
}

func (e *errAfterReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err == io.EOF {
		return n, e.err
	}
	return n, err
}

func TestSSEScannerReadError(t *testing.T) {
	cause := errors.New("connection reset")
	s := newSSEScanner(&errAfterReader{r: strings.NewReader("data: ok\n\n"), err: cause})

	f, err := s.next()
	if err != nil || string(f.data) != "ok" {
		t.Fatalf("first frame: %+v, %v", f, err)
	}
	_, err = s.next()
	if !errors.Is(err, ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

// chunkedReader returns one byte per Read call, exercising every possible
// split point in the byte stream.
type chunkedReader struct {
	data []byte
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	p[0] = c.data[0]
	c.data = c.data[1:]
	return 1, nil
}

func TestSSEScannerChunkBoundaryIndependence(t *testing.T) {
	input := "event: content.delta\nid: e1\ndata: {\"seq\":1}\n\ndata: {\"seq\":2}\n\n"

	whole := collectFrames(t, input)

	s := newSSEScanner(&chunkedReader{data: []byte(input)})
	var split []*sseFrame
	for {
		f, err := s.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		split = append(split, f)
	}

	if len(whole) != len(split) {
		t.Fatalf("frame counts differ: %d vs %d", len(whole), len(split))
	}
	for i := range whole {
		if whole[i].event != split[i].event || whole[i].id != split[i].id ||
			string(whole[i].data) != string(split[i].data) {
			t.Errorf("frame %d differs: %+v vs %+v", i, whole[i], split[i])
		}
	}
}
