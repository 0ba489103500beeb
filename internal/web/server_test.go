package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/audio/audiotest"
	"github.com/guidoenr/spectraviz/internal/catalog"
	"github.com/guidoenr/spectraviz/internal/control"
	"github.com/guidoenr/spectraviz/internal/decode/decodetest"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/scenes"
	"github.com/guidoenr/spectraviz/internal/store"
	"github.com/guidoenr/spectraviz/internal/web"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T) (*web.Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "night-drive.wav"), decodetest.Silence(1000, 3), 0o644))

	engine, err := audio.NewEngine(audio.Config{Output: audiotest.NewOutput(1000, 2)})
	require.NoError(t, err)
	playback := store.NewPlaybackStore(0)
	ctl, err := control.New(control.Config{
		Player:      engine,
		Element:     engine.Element(),
		Catalog:     catalog.New(dir, nil),
		Playback:    playback,
		Frequency:   store.NewFrequencyStore(engine.BinCount()),
		Params:      params.NewStore(params.Builtin(), "kaleidoscope"),
		Palettes:    palette.NewModel(""),
		Visualizers: scenes.Default(),
	})
	require.NoError(t, err)

	s := web.NewServer(ctl, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctl.Close()
		playback.Close()
		_ = engine.Close()
	})
	return s, ts
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body any, v any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestSongs(t *testing.T) {
	_, ts := newServer(t)
	var body struct {
		Songs []catalog.Song `json:"songs"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/songs", &body))
	require.Len(t, body.Songs, 1)
	assert.Equal(t, catalog.Song{Filename: "night-drive.wav", Name: "Night Drive", Path: "/assets/night-drive.wav"}, body.Songs[0])
}

func TestLoadByPathAndStatus(t *testing.T) {
	_, ts := newServer(t)

	var st web.StatusResponse
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/load", web.LoadRequest{Path: "/assets/night-drive.wav"}, &st))
	assert.Equal(t, "playing", st.Status)
	assert.True(t, st.Playing)
	assert.Equal(t, "Night Drive", st.Song)
	assert.InDelta(t, 3, st.Duration, 1e-6)

	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/transport", web.TransportRequest{Action: "pause"}, &st))
	assert.Equal(t, "paused", st.Status)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/transport", web.TransportRequest{Action: "rewind"}, nil))
	assert.Equal(t, http.StatusNotFound, postJSON(t, ts.URL+"/api/load", web.LoadRequest{Path: "/assets/none.wav"}, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/load", web.LoadRequest{Path: "/assets/../x.wav"}, nil))
}

func TestLoadRawBytes(t *testing.T) {
	_, ts := newServer(t)

	resp, err := http.Post(ts.URL+"/api/load?name=Mine", "audio/wav", bytes.NewReader(decodetest.Silence(1000, 1)))
	require.NoError(t, err)
	var st web.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mine", st.Song)

	resp, err = http.Post(ts.URL+"/api/load", "application/octet-stream", strings.NewReader("garbage"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var after web.StatusResponse
	getJSON(t, ts.URL+"/api/status", &after)
	assert.Equal(t, "Mine", after.Song)
}

func TestVisualizersAndParams(t *testing.T) {
	_, ts := newServer(t)

	var list []web.VisualizerResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/visualizers", &list))
	require.Len(t, list, 11)
	assert.Equal(t, "kaleidoscope", list[0].ID)
	assert.True(t, list[0].Active)

	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/visualizer", web.SelectRequest{ID: "bars2d"}, nil))
	assert.Equal(t, http.StatusNotFound, postJSON(t, ts.URL+"/api/visualizer", web.SelectRequest{ID: "nope"}, nil))

	var p web.ParamsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/params/bars2d", &p))
	assert.Equal(t, 64.0, p.Values["barCount"])
	assert.NotEmpty(t, p.Schema)

	v := 128.0
	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/params/bars2d", web.ParamRequest{Name: "barCount", Value: &v}, &p))
	assert.Equal(t, 128.0, p.Values["barCount"])

	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/params/bars2d", web.ParamRequest{Reset: true}, &p))
	assert.Equal(t, 64.0, p.Values["barCount"])

	assert.Equal(t, http.StatusNotFound, postJSON(t, ts.URL+"/api/params/bars2d", web.ParamRequest{Name: "nope", Value: &v}, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/params/bars2d", web.ParamRequest{Name: "barCount"}, nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/params/nope", nil))

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/params/plasma", &p))
	assert.Empty(t, p.Schema)
}

func TestPalettes(t *testing.T) {
	_, ts := newServer(t)

	var list []web.PaletteResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/palettes", &list))
	require.Len(t, list, 8)
	assert.Equal(t, "neon", list[0].Name)
	assert.Equal(t, []string{"#00ffff", "#ff00ff", "#ffff00"}, list[0].Colors)
	assert.True(t, list[0].Active)

	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/palette", web.SelectRequest{Name: "fire"}, nil))
	assert.Equal(t, http.StatusNotFound, postJSON(t, ts.URL+"/api/palette", web.SelectRequest{Name: "nope"}, nil))

	var st web.StatusResponse
	getJSON(t, ts.URL+"/api/status", &st)
	assert.Equal(t, "fire", st.Palette)
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newServer(t)
	resp, err := http.Get(ts.URL + "/api/transport")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWebSocketPushesChanges(t *testing.T) {
	s, ts := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		s.Run(ctx)
	}()
	defer func() {
		cancel()
		<-runDone
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first web.StatusResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "neon", first.Palette)

	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/palette", web.SelectRequest{Name: "ocean"}, nil))
	for {
		var st web.StatusResponse
		require.NoError(t, conn.ReadJSON(&st))
		if st.Palette == "ocean" {
			break
		}
	}
}
