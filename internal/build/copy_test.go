package build

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/albe2669/recipes/internal/pipeline"
)

func TestRenameEntry(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{name: "cooklatex", from: "cooklatex", to: "tool", want: "tool"},
		{name: "./cooklatex", from: "cooklatex", to: "tool", want: "tool"},
		{name: "out/", from: "out", to: "book", want: "book/"},
		{name: "out/main.pdf", from: "out", to: "book", want: "book/main.pdf"},
		{name: "outline.tex", from: "out", to: "book", want: "outline.tex"},
		{name: "other", from: "out", to: "book", want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renameEntry(tt.name, tt.from, tt.to); got != tt.want {
				t.Fatalf("renameEntry(%q, %q, %q) = %q, want %q", tt.name, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRenameTar(t *testing.T) {
	var src bytes.Buffer
	tw := tar.NewWriter(&src)
	writeTestEntry(t, tw, "cooklatex", "binary")
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	var dst bytes.Buffer
	if err := renameTar(&src, &dst, "cooklatex", "tool"); err != nil {
		t.Fatalf("renameTar: %v", err)
	}

	entries := readTestArchive(t, &dst)
	if got, ok := entries["tool"]; !ok || got != "binary" {
		t.Fatalf("entries = %v, want tool=binary", entries)
	}
	if _, ok := entries["cooklatex"]; ok {
		t.Fatal("original entry name still present")
	}
}

func TestWriteDirToTarHonoursExcludes(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "Dinner", "Soup.cook"), ">> servings: 2")
	mustWrite(t, filepath.Join(root, ".template", "main.tex"), "%{{recipes}}")
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), "ref: main")
	mustWrite(t, filepath.Join(root, "book.pdf"), "%PDF-")

	dir := pipeline.HostDirectory(root, ".git", "*.pdf")

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := writeDirToTar(tw, root, "app", dir.Excluded); err != nil {
		t.Fatalf("writeDirToTar: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readTestArchive(t, &buf)
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	want := []string{"app", "app/.template", "app/.template/main.tex", "app/Dinner", "app/Dinner/Soup.cook"}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("entries = %v, want %v", names, want)
		}
	}
	if entries["app/Dinner/Soup.cook"] != ">> servings: 2" {
		t.Fatalf("Soup.cook content = %q", entries["app/Dinner/Soup.cook"])
	}
}

func TestExtractFile(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	writeTestEntry(t, tw, "main.aux", "aux")
	writeTestEntry(t, tw, "main.pdf", "%PDF-1.5 body")
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "book.pdf")
	if err := extractFile(&buf, "main.pdf", dest); err != nil {
		t.Fatalf("extractFile: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "%PDF-1.5 body" {
		t.Fatalf("content = %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(dest), ".book.pdf-*"))
	if len(matches) != 0 {
		t.Fatalf("temporary files left behind: %v", matches)
	}
}

func TestExtractFileMissing(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	writeTestEntry(t, tw, "main.log", "log")
	tw.Close()

	dest := filepath.Join(t.TempDir(), "book.pdf")
	if err := extractFile(&buf, "main.pdf", dest); err == nil {
		t.Fatal("expected error for missing entry")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("dest should not exist after a failed extraction")
	}
}

func TestExtractFileRejectsDirectory(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "out/", Typeflag: tar.TypeDir, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	tw.Close()

	if err := extractFile(&buf, "out/", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Fatal("expected error for directory entry")
	}
}

func TestCollectMounts(t *testing.T) {
	src := t.TempDir()

	ops := pipeline.From("alpine").
		WithWorkdir("/work").
		WithMountedDirectory("/mnt", pipeline.HostDirectory(src)).
		WithMountedDirectory("data", pipeline.HostDirectory(src)).
		Ops()

	mounts, err := collectMounts(ops)
	if err != nil {
		t.Fatalf("collectMounts: %v", err)
	}
	if len(mounts) != 2 {
		t.Fatalf("len(mounts) = %d, want 2", len(mounts))
	}
	if mounts[0].Target != "/mnt" || mounts[1].Target != "/work/data" {
		t.Fatalf("targets = %q, %q", mounts[0].Target, mounts[1].Target)
	}
	if !mounts[0].ReadOnly {
		t.Fatal("mounts must be read-only")
	}
	if !filepath.IsAbs(mounts[0].Source) {
		t.Fatalf("source %q not absolute", mounts[0].Source)
	}
}

func TestCollectMountsMissingDirectory(t *testing.T) {
	ops := pipeline.From("alpine").
		WithMountedDirectory("/mnt", pipeline.HostDirectory(filepath.Join(t.TempDir(), "missing"))).
		Ops()

	if _, err := collectMounts(ops); err == nil {
		t.Fatal("expected error for missing host directory")
	}
}

func TestHostDirRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	mustWrite(t, f, "x")

	if _, err := hostDir(f); err == nil {
		t.Fatal("expected error for regular file")
	}
}

func writeTestEntry(t *testing.T, tw *tar.Writer, name, body string) {
	t.Helper()
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
}

func readTestArchive(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	entries := make(map[string]string)
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return entries
		}
		if err != nil {
			t.Fatal(err)
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		entries[filepath.ToSlash(filepath.Clean(h.Name))] = string(body)
	}
}

func mustWrite(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
