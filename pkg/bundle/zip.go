package bundle

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// extractZip expands an archive into dir, preserving entry paths.
func extractZip(archive, dir string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", archive, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractZipEntry(f, dir); err != nil {
			return err
		}
	}

	return nil
}

func extractZipEntry(f *zip.File, dir string) error {
	name := filepath.Clean(f.Name)
	if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
		return fmt.Errorf("archive entry %q escapes the extraction root", f.Name)
	}

	dst := filepath.Join(dir, name)

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dst, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dst, err)
		}

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	w, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer w.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}

	return nil
}

// createStoredZip writes an uncompressed archive containing the named entries
// under baseDir, with baseDir-relative paths preserved exactly. Entries absent
// on disk are skipped. Entry timestamps are zeroed so identical inputs produce
// byte-identical archives.
func createStoredZip(archive, baseDir string, entries []string) error {
	out, err := os.OpenFile(archive, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", archive, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for _, entry := range entries {
		src := filepath.Join(baseDir, entry)

		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return fmt.Errorf("failed to stat %s: %w", src, err)
		}

		if info.IsDir() {
			if err := addStoredTree(zw, src, entry); err != nil {
				return err
			}

			continue
		}

		if err := addStoredFile(zw, src, entry); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", archive, err)
	}

	return nil
}

func addStoredTree(zw *zip.Writer, dir, name string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to walk %s: %w", dir, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}

		entryName := name
		if rel != "." {
			entryName = name + "/" + filepath.ToSlash(rel)
		}

		if d.IsDir() {
			_, err := zw.CreateHeader(&zip.FileHeader{
				Name:   entryName + "/",
				Method: zip.Store,
			})
			if err != nil {
				return fmt.Errorf("failed to add directory %s: %w", entryName, err)
			}

			return nil
		}

		return addStoredFile(zw, path, entryName)
	})
}

func addStoredFile(zw *zip.Writer, path, name string) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   filepath.ToSlash(name),
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	return nil
}
