package resource

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// mappedFile reads a memory-mapped local file sequentially.
type mappedFile struct {
	*io.SectionReader
	mapped *mmap.ReaderAt
}

func openLocal(path string) (io.ReadCloser, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &mappedFile{
		SectionReader: io.NewSectionReader(r, 0, int64(r.Len())),
		mapped:        r,
	}, nil
}

func (f *mappedFile) Close() error {
	return f.mapped.Close()
}

// bufferedFile is a local output file behind a write buffer.
type bufferedFile struct {
	*bufio.Writer
	file *os.File
}

func createLocal(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &bufferedFile{Writer: bufio.NewWriterSize(f, 1<<20), file: f}, nil
}

// Close flushes the buffer and syncs the file before closing it.
func (f *bufferedFile) Close() error {
	if err := f.Flush(); err != nil {
		f.file.Close()
		return err
	}
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		return err
	}
	return f.file.Close()
}
