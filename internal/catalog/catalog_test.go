package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/spectraviz/internal/decode/decodetest"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestSongsListsDecodableFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "night-drive.mp3", []byte("x"))
	writeFile(t, dir, "ambient-loop.wav", decodetest.Silence(8000, 0.1))
	writeFile(t, dir, "cover.jpg", []byte("x"))
	writeFile(t, dir, "README", []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755))

	songs, err := New(dir, nil).Songs()
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, Song{Filename: "ambient-loop.wav", Name: "Ambient Loop", Path: "/assets/ambient-loop.wav"}, songs[0])
	assert.Equal(t, "Night Drive", songs[1].Name)
}

func TestSongsMissingDirIsEmpty(t *testing.T) {
	songs, err := New(filepath.Join(t.TempDir(), "nope"), nil).Songs()
	require.NoError(t, err)
	assert.Empty(t, songs)
	assert.NotNil(t, songs)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Night Drive", DisplayName("night-drive.mp3"))
	assert.Equal(t, "Already Upper", DisplayName("Already-Upper.ogg"))
	assert.Equal(t, "Single", DisplayName("single"))
	assert.Equal(t, "Échelle", DisplayName("échelle.mp3"))
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3", []byte("abc"))
	c := New(dir, nil)

	data, err := c.Fetch("/assets/a.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	data, err = c.Fetch("a.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = c.Fetch("/assets/missing.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, bad := range []string{"", "/assets/", "/assets/../a.mp3", "../a.mp3", "x/a.mp3", ".."} {
		_, err = c.Fetch(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

// id3v23 builds a minimal ID3v2.3 tag holding text frames.
func id3v23(frames map[string]string) []byte {
	var body []byte
	for _, id := range []string{"TIT2", "TPE1"} {
		text, ok := frames[id]
		if !ok {
			continue
		}
		size := len(text) + 1
		body = append(body, id...)
		body = append(body, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
		body = append(body, 0, 0, 0)
		body = append(body, text...)
	}
	n := len(body)
	header := []byte{'I', 'D', '3', 3, 0, 0,
		byte(n>>21) & 0x7f, byte(n>>14) & 0x7f, byte(n>>7) & 0x7f, byte(n) & 0x7f}
	out := append(header, body...)
	return append(out, make([]byte, 64)...)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Night Drive - Neon",
		Label(id3v23(map[string]string{"TIT2": "Night Drive", "TPE1": "Neon"}), "fallback"))
	assert.Equal(t, "Solo", Label(id3v23(map[string]string{"TIT2": "Solo"}), "fallback"))
	assert.Equal(t, "fallback", Label(id3v23(map[string]string{"TPE1": "Neon"}), "fallback"))
	assert.Equal(t, "fallback", Label([]byte("garbage"), "fallback"))
	assert.Equal(t, "fallback", Label(nil, "fallback"))
}
