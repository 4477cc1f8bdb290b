package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
)

// Extension of archives kept by the store.
const archiveExt = ".tar.zst"

// Directory under the store root mapping ref and platform to the digest
// last resolved for them.
const refsDir = "refs"

// Digest-keyed store of compressed image archives.
//
// Layout: {dir}/{algorithm}_{hex}.tar.zst, plus {dir}/refs/{key} holding the
// digest most recently resolved for a ref and platform. Writes go to a
// temporary file that is renamed into place, so a crashed pull never leaves
// a truncated archive behind.
type Store struct {
	mu   sync.Mutex
	dir  string
	pull func(ctx context.Context, ref, platform string) (*pulled, error)
}

// Creates a store rooted at dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, pull: pull}
}

// Returns the path of the archive for ref on platform, pulling the image
// when it is not on disk yet.
//
// The manifest is always resolved against the registry so that a moved tag
// is noticed. When resolution fails, the archive last resolved for ref on
// platform is used if it is still on disk.
func (s *Store) Archive(ctx context.Context, ref, platform string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Debug("resolving image", "ref", ref, "platform", platform)

	p, err := s.pull(ctx, ref, platform)
	if err != nil {
		if path, ok := s.cached(ref, platform); ok {
			slog.Warn("image resolution failed, using cached archive", "ref", ref, "platform", platform, "path", path, "error", err)
			return path, nil
		}
		return "", fmt.Errorf("%w: %w", ErrPull, err)
	}

	path := s.archivePath(p.digest)
	if _, err := os.Stat(path); err == nil {
		slog.Debug("image cache hit", "ref", ref, "digest", p.digest)
	} else {
		slog.Info("pulling image", "ref", ref, "platform", platform, "digest", p.digest)

		if err := s.write(p, path); err != nil {
			return "", fmt.Errorf("%w: %w", ErrArchive, err)
		}
	}

	if err := s.remember(ref, platform, p.digest); err != nil {
		slog.Warn("failed to record image digest", "ref", ref, "error", err)
	}

	return path, nil
}

// Returns the archive last recorded for ref on platform, if it exists.
func (s *Store) cached(ref, platform string) (string, bool) {
	b, err := os.ReadFile(s.refPath(ref, platform))
	if err != nil {
		return "", false
	}

	d, err := digest.Parse(strings.TrimSpace(string(b)))
	if err != nil {
		return "", false
	}

	path := s.archivePath(d)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Records d as the digest resolved for ref on platform.
func (s *Store) remember(ref, platform string, d digest.Digest) error {
	dir := filepath.Join(s.dir, refsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".ref-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(d.String() + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.refPath(ref, platform))
}

// Returns the index file for ref on platform. The key is hashed since refs
// contain path separators.
func (s *Store) refPath(ref, platform string) string {
	return filepath.Join(s.dir, refsDir, digest.FromString(ref+"\x00"+platform).Encoded())
}

// Writes the pulled image as a zstd-compressed archive at path.
func (s *Store) write(p *pulled, path string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".pull-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := compress(tmp, func(w io.Writer) error {
		return tarball.Write(p.ref, p.image, w)
	}); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// Returns the archive path for a digest.
func (s *Store) archivePath(d digest.Digest) string {
	return filepath.Join(s.dir, digestFileName(d))
}

// Converts "sha256:abc" to "sha256_abc.tar.zst".
func digestFileName(d digest.Digest) string {
	return strings.Replace(d.String(), ":", "_", 1) + archiveExt
}

// Streams the output of write through a zstd encoder into w.
func compress(w io.Writer, write func(io.Writer) error) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}

	if err := write(enc); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

// Opens an archive written by the store and returns the decompressed
// stream. Closing the returned reader closes the file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &archiveReader{Decoder: dec, file: f}, nil
}

// Couples a zstd decoder with the file it reads from.
type archiveReader struct {
	*zstd.Decoder
	file *os.File
}

func (r *archiveReader) Close() error {
	r.Decoder.Close()
	return r.file.Close()
}
