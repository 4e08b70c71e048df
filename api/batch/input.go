package batch

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morikuni/failure/v2"
)

// InputFile is a named blob the ingestor reads once
type InputFile interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// PathFile is a file on disk
type PathFile string

func (p PathFile) Name() string {
	return string(p)
}

func (p PathFile) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// BytesFile is an in-memory file
type BytesFile struct {
	FileName string
	Data     []byte
}

func (b BytesFile) Name() string {
	return b.FileName
}

func (b BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// StdinName is the argument that selects standard input
const StdinName = "-"

// Collect turns command line arguments into input files.
// Directories are walked for *.json files, glob patterns are expanded and
// "-" reads stdin once. The result keeps argument order; duplicates are
// dropped.
func Collect(args []string, stdin io.Reader) ([]InputFile, error) {
	var files []InputFile
	seen := map[string]bool{}
	add := func(f InputFile) {
		if seen[f.Name()] {
			return
		}
		seen[f.Name()] = true
		files = append(files, f)
	}

	for _, arg := range args {
		if arg == StdinName {
			if seen[StdinName] {
				continue
			}
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, failure.Wrap(err, failure.Message("Failed to read standard input"))
			}
			add(BytesFile{FileName: StdinName, Data: data})
			continue
		}

		matches, err := expand(arg)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(PathFile(m))
		}
	}

	return files, nil
}

func expand(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		return walkJSON(arg)
	case err == nil:
		return []string{arg}, nil
	case strings.ContainsAny(arg, "*?["):
		matches, gerr := filepath.Glob(arg)
		if gerr != nil {
			return nil, failure.New(ErrInvalidInput,
				failure.Message("Invalid file pattern"),
				failure.Context{"pattern": arg, "error": gerr.Error()},
			)
		}
		if len(matches) == 0 {
			return nil, failure.New(ErrInvalidInput,
				failure.Message("No files match pattern"),
				failure.Context{"pattern": arg},
			)
		}
		return matches, nil
	default:
		return nil, failure.New(ErrInvalidInput,
			failure.Message("File not found"),
			failure.Context{"path": arg},
		)
	}
}

func walkJSON(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, failure.Wrap(err, failure.Context{"dir": dir})
	}
	sort.Strings(paths)
	return paths, nil
}
