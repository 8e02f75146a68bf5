// Package ostream provides the seekable byte-source abstraction the SELF
// reconstructor and OELF parser read through. Stream is the minimal
// surface the loader needs from an opened file; OffsetStream re-bases one
// Stream at a fixed origin so the embedded-OELF parser can address offsets
// relative to where the OELF actually starts inside the fake SELF
// container, without either side needing to know about the other's
// coordinate system.
package ostream

import (
	"fmt"
	"io"
)

// Stream is a seekable byte source. File-backed streams and OffsetStream
// both implement it.
type Stream interface {
	io.Reader
	io.ReaderAt

	// SeekTo moves to an absolute position and returns the new position.
	SeekTo(pos int64) (int64, error)
	// SeekBy moves by a relative delta and returns the new position.
	SeekBy(delta int64) (int64, error)
	// GetPos returns the current position.
	GetPos() (int64, error)
	// GetEndPos returns the stream's length.
	GetEndPos() (int64, error)
}

// FileStream adapts an *os.File (or any io.ReadSeeker+io.ReaderAt) to Stream.
type FileStream struct {
	f interface {
		io.Reader
		io.ReaderAt
		io.Seeker
	}
}

// NewFileStream wraps f as a Stream.
func NewFileStream(f interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}) *FileStream {
	return &FileStream{f: f}
}

func (s *FileStream) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *FileStream) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

func (s *FileStream) SeekTo(pos int64) (int64, error) { return s.f.Seek(pos, io.SeekStart) }

func (s *FileStream) SeekBy(delta int64) (int64, error) { return s.f.Seek(delta, io.SeekCurrent) }

func (s *FileStream) GetPos() (int64, error) { return s.f.Seek(0, io.SeekCurrent) }

func (s *FileStream) GetEndPos() (int64, error) {
	cur, err := s.GetPos()
	if err != nil {
		return 0, err
	}
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.f.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}

// OffsetStream wraps a Stream, shifting every seek and position report by
// a fixed origin O. seekTo(p) delegates to the underlying stream's
// seekTo(p+O); positions reported back subtract O again, so callers read
// and seek in the origin's own coordinate space. SeekBy is a pass-through:
// a relative move means the same thing regardless of origin.
type OffsetStream struct {
	under  Stream
	origin int64
}

// NewOffsetStream returns a Stream rooted at origin within under.
func NewOffsetStream(under Stream, origin int64) *OffsetStream {
	return &OffsetStream{under: under, origin: origin}
}

func (s *OffsetStream) Read(p []byte) (int, error) { return s.under.Read(p) }

func (s *OffsetStream) ReadAt(p []byte, off int64) (int, error) {
	return s.under.ReadAt(p, off+s.origin)
}

func (s *OffsetStream) SeekTo(pos int64) (int64, error) {
	abs, err := s.under.SeekTo(pos + s.origin)
	if err != nil {
		return 0, fmt.Errorf("offset stream: seek to %d (origin %d): %w", pos, s.origin, err)
	}
	return abs - s.origin, nil
}

func (s *OffsetStream) SeekBy(delta int64) (int64, error) {
	abs, err := s.under.SeekBy(delta)
	if err != nil {
		return 0, err
	}
	return abs - s.origin, nil
}

func (s *OffsetStream) GetPos() (int64, error) {
	abs, err := s.under.GetPos()
	if err != nil {
		return 0, err
	}
	return abs - s.origin, nil
}

func (s *OffsetStream) GetEndPos() (int64, error) {
	abs, err := s.under.GetEndPos()
	if err != nil {
		return 0, err
	}
	return abs - s.origin, nil
}
