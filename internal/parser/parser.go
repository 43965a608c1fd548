// Package parser reads Elite Insights encounter reports from disk. Files may
// be plain JSON or gzip/zstd compressed; each is hashed so a batch can be
// recognized when it is submitted again.
package parser

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-topstats/internal/model"
)

// Extensions lists the file suffixes picked up when a directory is given.
var Extensions = []string{".json", ".json.gz", ".json.zst"}

// File is one loaded encounter.
type File struct {
	Path string
	Hash string
	Log  *model.Log
}

// Name returns the file's base name.
func (f File) Name() string { return filepath.Base(f.Path) }

// CollectPaths expands directories into their encounter files and returns
// every path sorted by file name, which fixes each encounter's fight index.
func CollectPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && hasEncounterSuffix(e.Name()) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})
	return paths, nil
}

func hasEncounterSuffix(name string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// LoadFiles parses paths with up to workers files in flight. The result keeps
// the order of paths regardless of completion order.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]File, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := ParseFile(p)
			if err != nil {
				return err
			}
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseFile reads, hashes and decodes one encounter file.
func ParseFile(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)

	r, err := decompress(path, raw)
	if err != nil {
		return File{}, fmt.Errorf("decompress %s: %w", path, err)
	}
	log, err := Decode(r)
	if err != nil {
		return File{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return File{Path: path, Hash: fmt.Sprintf("%x", sum), Log: log}, nil
}

func decompress(path string, raw []byte) (io.Reader, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewReader(bytes.NewReader(raw))
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(out), nil
	}
	return bytes.NewReader(raw), nil
}

// Decode parses one encounter report.
func Decode(r io.Reader) (*model.Log, error) {
	var log model.Log
	if err := json.NewDecoder(r).Decode(&log); err != nil {
		return nil, err
	}
	return &log, nil
}

// BatchHash combines the file hashes, in batch order, into one key.
func BatchHash(files []File) string {
	h := sha256.New()
	for _, f := range files {
		io.WriteString(h, f.Hash)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
