// Package preview serves the current session's captures on a local web
// page that refreshes itself whenever a new capture lands.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"timelens/internal/logger"
)

const (
	maxHistorySize = 50
	maxClients     = 5
	thumbWidth     = 320
	maxThumbWidth  = 1024
)

type Server struct {
	addr string

	mu      sync.RWMutex
	history []string

	clientsMu sync.Mutex
	clients   []chan string

	srvMu sync.Mutex
	srv   *http.Server
	url   string
}

func New(addr string) *Server {
	return &Server{addr: addr, url: "http://" + addr}
}

// Publish adds a capture to the history and tells open pages to refresh.
func (s *Server) Publish(path string) {
	s.mu.Lock()
	s.history = append(s.history, path)
	if len(s.history) > maxHistorySize {
		s.history = s.history[len(s.history)-maxHistorySize:]
	}
	s.mu.Unlock()

	s.notifyClients("update")
}

func (s *Server) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/image", s.handleImage)
	mux.HandleFunc("/thumb", s.handleThumb)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/delete", s.handleDelete)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Start listens on the configured address. Calling it twice is a no-op.
func (s *Server) Start() error {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("preview listen on %s: %w", s.addr, err)
	}
	s.url = "http://" + ln.Addr().String()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Preview server stopped", "error", err)
		}
	}()
	logger.Info("Preview server started", "url", s.url)
	return nil
}

func (s *Server) Running() bool {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.srv != nil
}

func (s *Server) URL() string {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.url
}

func (s *Server) Shutdown() {
	s.srvMu.Lock()
	srv := s.srv
	s.srv = nil
	s.srvMu.Unlock()
	if srv == nil {
		return
	}

	s.clientsMu.Lock()
	for _, ch := range s.clients {
		close(ch)
	}
	s.clients = nil
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
	}
}

// OpenBrowser opens the preview page in the default browser.
func (s *Server) OpenBrowser() {
	url := s.URL()
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("Failed to open browser", "error", err)
	}
}

// pathAt returns the capture at index, or the latest one when index is "".
func (s *Server) pathAt(index string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return "", false
	}
	if index == "" {
		return s.history[len(s.history)-1], true
	}
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(s.history) {
		return "", false
	}
	return s.history[i], true
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>timelens</title>
<style>
body { margin: 0; padding: 20px; background: #1e1e1e; color: #aaa; font-family: Arial; text-align: center; }
img { max-width: 90vw; max-height: 80vh; box-shadow: 0 4px 20px rgba(0,0,0,0.5); }
a { color: #2196F3; }
</style>
</head>
<body>
{{if .Latest}}
<img id="capture" src="/image?t={{.Stamp}}">
<p>{{.Latest}}</p>
{{else}}
<p id="waiting">Waiting for the first capture...</p>
{{end}}
<p><a href="/history">History ({{.Count}})</a></p>
<script>
new EventSource('/events').onmessage = function() { window.location.reload(); };
</script>
</body>
</html>`))

var historyTmpl = template.Must(template.New("history").Parse(`<!DOCTYPE html>
<html>
<head>
<title>timelens - History</title>
<style>
body { margin: 0; padding: 20px; background: #1e1e1e; color: #aaa; font-family: Arial; }
.gallery { display: flex; flex-wrap: wrap; gap: 12px; }
.thumbnail { background: #2a2a2a; padding: 8px; border-radius: 4px; }
.delete { color: #f44336; cursor: pointer; font-size: 12px; }
a { color: #2196F3; }
</style>
</head>
<body>
<h1>Captures ({{len .Items}}/{{.Max}})</h1>
<p><a href="/">Back to latest</a></p>
<div class="gallery">
{{range .Items}}
<div class="thumbnail">
<a href="/image?index={{.Index}}"><img src="/thumb?index={{.Index}}" alt="{{.Name}}"></a>
<div>{{.Name}}</div>
<div class="delete" onclick="del({{.Index}})">Delete</div>
</div>
{{end}}
</div>
<script>
function del(index) {
  fetch('/delete', {method: 'POST', headers: {'Content-Type': 'application/x-www-form-urlencoded'}, body: 'index=' + index})
    .then(() => window.location.reload());
}
</script>
</body>
</html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Latest string
		Count  int
		Stamp  int64
	}{
		Count: len(s.History()),
		Stamp: time.Now().UnixNano(),
	}
	if latest, ok := s.pathAt(""); ok {
		data.Latest = filepath.Base(latest)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		logger.Error("Render index", "error", err)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathAt(r.URL.Query().Get("index"))
	if !ok {
		http.Error(w, "No image yet", http.StatusNotFound)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	io.Copy(w, file)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	path, ok := s.pathAt(r.URL.Query().Get("index"))
	if !ok {
		http.Error(w, "No image yet", http.StatusNotFound)
		return
	}

	width := thumbWidth
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid width", http.StatusBadRequest)
			return
		}
		width = min(n, maxThumbWidth)
	}

	thumb, err := thumbnail(path, width)
	if err != nil {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, thumb); err != nil {
		logger.Debug("Write thumbnail", "error", err)
	}
}

func thumbnail(path string, width int) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, err := png.Decode(file)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	if b.Dx() <= width {
		return src, nil
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Index int
		Name  string
	}

	history := s.History()
	items := make([]item, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		items = append(items, item{Index: i, Name: filepath.Base(history[i])})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Items []item
		Max   int
	}{items, maxHistorySize}
	if err := historyTmpl.Execute(w, data); err != nil {
		logger.Error("Render history", "error", err)
	}
}

// handleDelete removes a capture from the history and from disk.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !sameOrigin(r) {
		http.Error(w, "Cross-origin request refused", http.StatusForbidden)
		return
	}

	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "Missing index parameter", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if index < 0 || index >= len(s.history) {
		s.mu.Unlock()
		http.Error(w, "No such capture", http.StatusNotFound)
		return
	}
	path := s.history[index]
	s.history = append(s.history[:index], s.history[index+1:]...)
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to delete capture", "path", path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"success": true}`))
}

// sameOrigin rejects browser requests sent from another site's page.
// Requests with neither Origin nor Referer come from non-browser clients.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.addClient()
	defer s.removeClient(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) addClient() chan string {
	ch := make(chan string, 10)
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if len(s.clients) >= maxClients {
		close(s.clients[0])
		s.clients = s.clients[1:]
	}
	s.clients = append(s.clients, ch)
	return ch
}

// removeClient drops ch if it is still registered. Channels evicted by
// addClient or Shutdown are already closed and gone from the list.
func (s *Server) removeClient(ch chan string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for i, c := range s.clients {
		if c == ch {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			close(ch)
			return
		}
	}
}

func (s *Server) clientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Server) notifyClients(msg string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
