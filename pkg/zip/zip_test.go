package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func readArchive(t *testing.T, archive []byte) *zip.Reader {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return reader
}

func TestArchiveAssets(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "one.png", MIME: "image/png", Data: []byte("first")},
		{Filename: "skipped.png", MIME: "image/png"},
		{Filename: "two", MIME: "image/jpeg", Data: []byte("second")},
	})
	if len(archive) == 0 {
		t.Fatalf("empty archive")
	}

	reader := readArchive(t, archive)
	if len(reader.File) != 2 {
		t.Fatalf("unexpected file count: %d", len(reader.File))
	}
	if got := reader.File[1].Name; got != "two.jpg" {
		t.Fatalf("extension not derived from MIME: %s", got)
	}

	f, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("unexpected entry data: %s", data)
	}
}

func TestArchiveAssetsDeduplicatesNames(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "card", MIME: "image/png", Data: []byte("a")},
		{Filename: "card", MIME: "image/png", Data: []byte("b")},
		{Filename: "", MIME: "unknown/type", Data: []byte("c")},
	})

	reader := readArchive(t, archive)
	if len(reader.File) != 3 {
		t.Fatalf("unexpected file count: %d", len(reader.File))
	}
	names := []string{reader.File[0].Name, reader.File[1].Name, reader.File[2].Name}
	if names[0] != "card.png" || names[1] != "card-2.png" || names[2] != "card.bin" {
		t.Fatalf("unexpected entry names: %v", names)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	archive := ArchiveAssets(nil)
	if _, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive))); err != nil {
		t.Fatalf("empty archive should still be valid: %v", err)
	}
}
