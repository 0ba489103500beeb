// Package catalog lists the songs bundled in an assets directory and reads
// them back for playback.
package catalog

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"

	"github.com/guidoenr/spectraviz/internal/decode"
)

// PathPrefix is prepended to file names to form a song path.
const PathPrefix = "/assets/"

var (
	ErrNotFound    = errors.New("song not found")
	ErrInvalidPath = errors.New("invalid song path")
)

// Song is one playable file.
type Song struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}

// Catalog reads songs from a single directory.
type Catalog struct {
	root     string
	decoders *decode.Registry
}

// New returns a catalog over root. Files are listed when decoders has a
// format for their extension; a nil registry means decode.Default().
func New(root string, decoders *decode.Registry) *Catalog {
	if decoders == nil {
		decoders = decode.Default()
	}
	return &Catalog{root: root, decoders: decoders}
}

// Root is the directory songs are read from.
func (c *Catalog) Root() string { return c.root }

// Songs lists playable files sorted by display name. A missing directory is
// an empty catalog.
func (c *Catalog) Songs() ([]Song, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Song{}, nil
		}
		return nil, errors.Wrapf(err, "read songs dir %s", c.root)
	}

	songs := make([]Song, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !c.decoders.Supports(entry.Name()) {
			continue
		}
		songs = append(songs, Song{
			Filename: entry.Name(),
			Name:     DisplayName(entry.Name()),
			Path:     PathPrefix + entry.Name(),
		})
	}
	sort.SliceStable(songs, func(i, j int) bool {
		a, b := strings.ToLower(songs[i].Name), strings.ToLower(songs[j].Name)
		if a != b {
			return a < b
		}
		return songs[i].Name < songs[j].Name
	})
	return songs, nil
}

// Fetch reads the bytes of a song given its path or bare file name.
func (c *Catalog) Fetch(songPath string) ([]byte, error) {
	name := strings.TrimPrefix(songPath, PathPrefix)
	if name == "" || name != path.Base(name) || name == "." || name == ".." || strings.ContainsRune(name, '\\') {
		return nil, errors.Wrap(ErrInvalidPath, songPath)
	}
	data, err := os.ReadFile(filepath.Join(c.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, songPath)
		}
		return nil, errors.Wrapf(err, "read song %s", songPath)
	}
	return data, nil
}

// DisplayName strips the extension and capitalizes each hyphen-separated
// word: "night-drive.mp3" becomes "Night Drive".
func DisplayName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	words := strings.Split(base, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Label builds a "Title - Artist" label from embedded tags, falling back
// when the data carries no usable title.
func Label(data []byte, fallback string) string {
	meta, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil || meta == nil {
		return fallback
	}
	title := strings.TrimSpace(meta.Title())
	if title == "" {
		return fallback
	}
	if artist := strings.TrimSpace(meta.Artist()); artist != "" {
		return title + " - " + artist
	}
	return title
}
