// Package files stores the source and output of daemon executions, on the
// local disk during development and in a S3 bucket otherwise.
package files

import (
	"sync"

	"github.com/pkg/errors"
)

// Names of the files kept for every execution.
const (
	SourceFile      = "source.cpp"
	OutputFile      = "output"
	ErrorOutputFile = "output_error"
)

// ErrNotFound is wrapped by GetFile when the execution has no such file.
var ErrNotFound = errors.New("file not found")

type Config struct {
	Local *LocalConfig
	S3    *S3Config

	// ForceLocalMode writes to the local disk even when a bucket is configured.
	ForceLocalMode bool
}

type LocalConfig struct {
	LocalRootPath string
}

type S3Config struct {
	BucketName string
}

type File struct {
	ID   string
	Name string
	Data []byte
}

type Files interface {
	WriteFile(file *File) error
	WriteFiles(files ...*File) []error
	GetFile(id string, name string) ([]byte, error)
}

func NewFilesHandler(config *Config) (Files, error) {
	if config.ForceLocalMode || config.S3 == nil || config.S3.BucketName == "" {
		if config.Local == nil || config.Local.LocalRootPath == "" {
			return nil, errors.New("local files require a root path")
		}

		return newLocalFiles(config.Local)
	}

	return newS3Files(config.S3)
}

// writeAll writes every file at once and collects the failures.
func writeAll(write func(file *File) error, files []*File) []error {
	wg := sync.WaitGroup{}

	var errs []error
	queue := make(chan error, len(files))

	for _, file := range files {
		wg.Add(1)

		go func(file *File) {
			defer wg.Done()

			if err := write(file); err != nil {
				queue <- err
			}
		}(file)
	}

	wg.Wait()
	close(queue)

	for err := range queue {
		errs = append(errs, err)
	}

	return errs
}
