// Package archive unpacks the class files of jar, war, ear, zip and tar
// archives, following nested jars, into a staging directory.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

var (
	ErrUnsupportedArchive = errors.New("unsupported archive type")
	ErrUnsafePath         = errors.New("archive entry escapes the output directory")
)

const maxDepth = 8

// nested archives up to this size are opened in memory
var maxInMemory int64 = 32 << 20

// Result counts what an extraction produced.
type Result struct {
	Classes  int // class files written
	Archives int // containers opened, including the top-level one
	Failed   int // entries that were logged and skipped
}

type extractor struct {
	ctx    context.Context
	out    string
	logger hclog.Logger
	res    Result
}

// Extract writes every .class entry of the archive at path under outRoot,
// keeping the entry's directory layout. Nested jar, war and ear entries are
// unpacked into the same root. A failing entry is logged and its siblings
// continue; only an unreadable or unsupported top-level archive is an
// error.
func Extract(ctx context.Context, path, outRoot string, logger hclog.Logger) (*Result, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	x := &extractor{ctx: ctx, out: outRoot, logger: logger}

	var err error
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".tar"):
		err = x.tarFile(path, false)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		err = x.tarFile(path, true)
	case isNestedContainer(lower), strings.HasSuffix(lower, ".zip"):
		err = x.zipFile(path)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(path))
	}
	if err != nil {
		return &x.res, err
	}

	logger.Info("archive extracted", "archive", path, "classes", x.res.Classes, "containers", x.res.Archives, "failed", x.res.Failed)
	return &x.res, x.ctx.Err()
}

func (x *extractor) zipFile(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer zr.Close()
	x.zip(&zr.Reader, filepath.Base(path), 0)
	return nil
}

func (x *extractor) tarFile(path string, gzipped bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var r io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return x.tar(r, filepath.Base(path))
}

func (x *extractor) zip(zr *zip.Reader, name string, depth int) {
	x.res.Archives++
	log := x.logger.With("archive", name)

	for _, f := range zr.File {
		if x.ctx.Err() != nil {
			return
		}
		if f.FileInfo().IsDir() {
			continue
		}

		var err error
		switch {
		case strings.HasSuffix(strings.ToLower(f.Name), ".class"):
			err = x.zipClass(f)
		case isNestedContainer(f.Name):
			err = x.zipNested(f, name, depth)
		default:
			continue
		}
		if err != nil {
			x.res.Failed++
			log.Error("failed to extract entry", "entry", f.Name, "error", err)
		}
	}
}

func (x *extractor) zipClass(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return x.writeClass(f.Name, rc)
}

func (x *extractor) zipNested(f *zip.File, parent string, depth int) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return x.nested(rc, int64(f.UncompressedSize64), f.Name, parent, depth)
}

func (x *extractor) tar(r io.Reader, name string) error {
	x.res.Archives++
	log := x.logger.With("archive", name)

	tr := tar.NewReader(r)
	for {
		if x.ctx.Err() != nil {
			return nil
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// the stream cannot be resynchronised after a bad header
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		switch {
		case strings.HasSuffix(strings.ToLower(hdr.Name), ".class"):
			err = x.writeClass(hdr.Name, tr)
		case isNestedContainer(hdr.Name):
			err = x.nested(tr, hdr.Size, hdr.Name, name, 0)
		default:
			continue
		}
		if err != nil {
			x.res.Failed++
			log.Error("failed to extract entry", "entry", hdr.Name, "error", err)
		}
	}
}

// nested opens a jar, war or ear entry as a zip archive, in memory when
// it is small enough and through a temporary file otherwise.
func (x *extractor) nested(r io.Reader, size int64, entry, parent string, depth int) error {
	if depth+1 >= maxDepth {
		return fmt.Errorf("nested deeper than %d archives", maxDepth)
	}
	name := parent + "!" + HostPath(entry)
	x.logger.Debug("processing nested archive", "entry", entry, "name", name, "size", size)

	if size >= 0 && size <= maxInMemory {
		data, err := io.ReadAll(io.LimitReader(r, maxInMemory+1))
		if err != nil {
			return err
		}
		if int64(len(data)) <= maxInMemory {
			zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				return err
			}
			x.zip(zr, name, depth+1)
			return nil
		}
		// the header understated the size; spill what was read plus the rest
		r = io.MultiReader(bytes.NewReader(data), r)
	}
	return x.spill(r, name, depth)
}

func (x *extractor) spill(r io.Reader, name string, depth int) error {
	tmp, err := os.CreateTemp("", "inthunter-*"+filepath.Ext(name))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(tmp, size)
	if err != nil {
		return err
	}
	x.zip(zr, name, depth+1)
	return nil
}

func (x *extractor) writeClass(entry string, r io.Reader) error {
	dest, err := safeJoin(x.out, entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	x.res.Classes++
	return nil
}

// safeJoin maps a '/'-separated entry name below root, rejecting absolute
// names and names that climb out with "..".
func safeJoin(root, entry string) (string, error) {
	name := strings.ReplaceAll(entry, `\`, "/")
	if path.IsAbs(name) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, entry)
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, entry)
	}
	return filepath.Join(root, filepath.FromSlash(cleaned)), nil
}
