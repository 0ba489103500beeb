// Package web exposes the player over HTTP and pushes status changes to
// websocket clients.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/catalog"
	"github.com/guidoenr/spectraviz/internal/control"
	"github.com/guidoenr/spectraviz/internal/decode"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

// MaxUploadBytes caps the body of POST /api/load.
const MaxUploadBytes = 64 << 20

// StatusInterval is how often band levels are pushed even without changes.
const StatusInterval = 500 * time.Millisecond

// Controller is the set of actions the server exposes. *control.Controller
// implements it.
type Controller interface {
	Songs() ([]catalog.Song, error)
	LoadSong(ctx context.Context, path string) error
	LoadBytes(ctx context.Context, label string, data []byte) error
	Transport(action string, value float64) error
	Visualizers() []visualizer.Entry
	ActiveVisualizer() string
	SetVisualizer(id string) error
	Params(id string) (params.Schema, params.Values, error)
	SetParam(id, name string, value float64) error
	ResetParams(id string) error
	Palettes() []palette.Palette
	SetPalette(name string) error
	Status() control.Status
	Subscribe(fn func()) (unsubscribe func())
}

type Server struct {
	ctl      Controller
	log      *log.Logger
	mux      *http.ServeMux
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	clients   map[*websocketClient]bool
	broadcast chan []byte
	wg        sync.WaitGroup
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

type Bands struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

type StatusResponse struct {
	Status        string  `json:"status"`
	Playing       bool    `json:"playing"`
	HasSong       bool    `json:"hasSong"`
	Song          string  `json:"song"`
	SongPath      string  `json:"songPath,omitempty"`
	CurrentTime   float64 `json:"currentTime"`
	Duration      float64 `json:"duration"`
	PanelExpanded bool    `json:"panelExpanded"`
	Visualizer    string  `json:"visualizer"`
	Palette       string  `json:"palette"`
	Bands         Bands   `json:"bands"` // display only
}

type VisualizerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type ParamsResponse struct {
	ID     string             `json:"id"`
	Schema params.Schema      `json:"schema"`
	Values map[string]float64 `json:"values"`
}

type PaletteResponse struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
	Active bool     `json:"active"`
}

type ParamRequest struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value,omitempty"`
	Reset bool     `json:"reset,omitempty"`
}

type TransportRequest struct {
	Action string  `json:"action"`
	Value  float64 `json:"value,omitempty"`
}

type SelectRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type LoadRequest struct {
	Path string `json:"path"`
}

// NewServer builds the routes. Nothing is pushed to websocket clients until
// Run is called.
func NewServer(ctl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		ctl:       ctl,
		log:       logger,
		mux:       http.NewServeMux(),
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.mux.HandleFunc("GET /api/songs", s.handleSongs)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/visualizers", s.handleVisualizers)
	s.mux.HandleFunc("POST /api/visualizer", s.handleSetVisualizer)
	s.mux.HandleFunc("GET /api/params/{id}", s.handleParams)
	s.mux.HandleFunc("POST /api/params/{id}", s.handleSetParam)
	s.mux.HandleFunc("GET /api/palettes", s.handlePalettes)
	s.mux.HandleFunc("POST /api/palette", s.handleSetPalette)
	s.mux.HandleFunc("POST /api/transport", s.handleTransport)
	s.mux.HandleFunc("POST /api/load", s.handleLoad)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves addr and pushes status until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	s.log.Printf("[web] server starting on http://%s", addr)

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		s.Run(ctx)
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	<-runDone
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run pushes status to websocket clients on every change and every
// StatusInterval. It returns after ctx is done and every client is closed.
func (s *Server) Run(ctx context.Context) {
	off := s.ctl.Subscribe(s.queueStatus)
	defer off()

	ticker := time.NewTicker(StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			s.wg.Wait()
			return
		case <-ticker.C:
			s.queueStatus()
		case message := <-s.broadcast:
			s.fanOut(message)
		}
	}
}

func (s *Server) queueStatus() {
	data, err := json.Marshal(s.status())
	if err != nil {
		return
	}
	select {
	case s.broadcast <- data:
	default:
		// drop if channel full (non-blocking)
	}
}

func (s *Server) fanOut(message []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(s.clients, client)
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		close(client.send)
		delete(s.clients, client)
	}
}

func (s *Server) status() StatusResponse {
	st := s.ctl.Status()
	return StatusResponse{
		Status:        st.Playback.Status.String(),
		Playing:       st.Playback.IsPlaying,
		HasSong:       st.Playback.HasSong,
		Song:          st.Playback.SongLabel,
		SongPath:      st.SongPath,
		CurrentTime:   st.Playback.CurrentTime,
		Duration:      st.Playback.Duration,
		PanelExpanded: st.Playback.PanelExpanded,
		Visualizer:    st.Visualizer,
		Palette:       st.Palette,
		Bands:         Bands{Low: st.Low, Mid: st.Mid, High: st.High},
	}
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.ctl.Songs()
	if err != nil {
		s.log.Printf("[web] list songs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"songs": []catalog.Song{}, "error": "failed to load songs"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleVisualizers(w http.ResponseWriter, r *http.Request) {
	active := s.ctl.ActiveVisualizer()
	entries := s.ctl.Visualizers()
	out := make([]VisualizerResponse, len(entries))
	for i, e := range entries {
		out[i] = VisualizerResponse{ID: e.ID, Name: e.Name, Active: e.ID == active}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetVisualizer(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.ctl.SetVisualizer(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "visualizer": req.ID})
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	schema, values, err := s.ctl.Params(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if schema == nil {
		schema = params.Schema{}
	}
	writeJSON(w, http.StatusOK, ParamsResponse{ID: id, Schema: schema, Values: values})
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req ParamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var err error
	switch {
	case req.Reset:
		err = s.ctl.ResetParams(id)
	case req.Value == nil:
		http.Error(w, "value is required", http.StatusBadRequest)
		return
	default:
		err = s.ctl.SetParam(id, req.Name, *req.Value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.handleParams(w, r)
}

func (s *Server) handlePalettes(w http.ResponseWriter, r *http.Request) {
	active := s.ctl.Status().Palette
	palettes := s.ctl.Palettes()
	out := make([]PaletteResponse, len(palettes))
	for i, p := range palettes {
		out[i] = PaletteResponse{Name: p.Name, Colors: p.Hex(), Active: p.Name == active}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetPalette(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.ctl.SetPalette(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "palette": req.Name})
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	var req TransportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.ctl.Transport(req.Action, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

// handleLoad accepts either {"path": "/assets/x.mp3"} or raw audio bytes.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var err error
	if mediaType == "application/json" {
		var req LoadRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		err = s.ctl.LoadSong(r.Context(), req.Path)
	} else {
		data, readErr := io.ReadAll(r.Body)
		if readErr != nil {
			http.Error(w, readErr.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		label := r.URL.Query().Get("name")
		if label == "" {
			label = "Upload"
		}
		err = s.ctl.LoadBytes(r.Context(), label, data)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[web] websocket upgrade error: %v", err)
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}
	if data, err := json.Marshal(s.status()); err == nil {
		client.send <- data
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	s.wg.Add(2)
	go client.writePump()
	go client.readPump()
}

func (c *websocketClient) readPump() {
	defer c.server.wg.Done()
	defer func() {
		c.server.mu.Lock()
		if c.server.clients[c] {
			close(c.send)
			delete(c.server.clients, c)
		}
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *websocketClient) writePump() {
	defer c.server.wg.Done()
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var decErr *decode.DecodeError
	switch {
	case errors.Is(err, control.ErrUnknownVisualizer),
		errors.Is(err, control.ErrUnknownParam),
		errors.Is(err, palette.ErrUnknownPalette),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, control.ErrNoSongs):
		code = http.StatusNotFound
	case errors.Is(err, control.ErrUnknownAction),
		errors.Is(err, catalog.ErrInvalidPath):
		code = http.StatusBadRequest
	case errors.As(err, &decErr):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, audio.ErrSuperseded):
		code = http.StatusConflict
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
