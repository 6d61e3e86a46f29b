package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
)

// Asset is a single card image destined for an export archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs the given assets into an in-memory zip archive. Assets
// with no data are skipped, filenames without an extension get one derived
// from the asset MIME type, and name collisions are suffixed so every card
// survives the export.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]int)

	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		w, err := zw.Create(entryName(asset, seen))
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}

	_ = zw.Close()
	return buf.Bytes()
}

func entryName(asset Asset, seen map[string]int) string {
	name := strings.TrimSpace(asset.Filename)
	if name == "" {
		name = "card"
	}
	if path.Ext(name) == "" {
		name += extensionForMIME(asset.MIME)
	}

	seen[name]++
	if n := seen[name]; n > 1 {
		ext := path.Ext(name)
		name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
	}
	return name
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
