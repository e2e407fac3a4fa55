package content

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptySource is returned when a full pass over the file yields no lines.
var ErrEmptySource = errors.New("content source has no lines")

// Source reads the lines of a text file forever, rewinding to the start
// whenever it reaches end of file.
type Source struct {
	path   string
	file   *os.File
	reader *bufio.Reader
	pass   int // lines read since the last rewind
}

// Open opens the file at path for looping reads.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening content source: %w", err)
	}

	return &Source{
		path:   path,
		file:   file,
		reader: bufio.NewReader(file),
	}, nil
}

// Next returns the next line, always terminated by a newline.
// Blank lines are returned as "\n" so that every line of the file is a unit.
func (s *Source) Next() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if line != "" {
			s.pass++
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			return line, nil
		}

		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading %s: %w", s.path, err)
		}
		if s.pass == 0 {
			return "", fmt.Errorf("%s: %w", s.path, ErrEmptySource)
		}

		if err := s.rewind(); err != nil {
			return "", err
		}
	}
}

func (s *Source) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking %s: %w", s.path, err)
	}
	s.reader.Reset(s.file)
	s.pass = 0
	return nil
}

// Path returns the file the source reads from.
func (s *Source) Path() string {
	return s.path
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.file.Close()
}
