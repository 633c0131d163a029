package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/whereiam/internal/config"
	"github.com/relabs-tech/whereiam/internal/geo"
	"github.com/relabs-tech/whereiam/internal/share"
	"github.com/relabs-tech/whereiam/internal/snapshot"
	"github.com/relabs-tech/whereiam/internal/tracker"
	"github.com/relabs-tech/whereiam/internal/view"
	"github.com/relabs-tech/whereiam/web"
)

const (
	qrDefaultSize = 256
	qrMinSize     = 64
	qrMaxSize     = 1024
)

// Server serves the page, its live view sessions and the image endpoints.
type Server struct {
	tracker  *tracker.Tracker
	opts     geo.Options
	snapshot snapshot.Options
	logger   *log.Entry
	tmpl     *template.Template
	upgrader websocket.Upgrader

	// sub is the server's own subscription behind /api/position and
	// snapshots requested without coordinates.
	sub *tracker.Subscription
}

// NewServer subscribes to tr and prepares the handlers.
func NewServer(tr *tracker.Tracker, opts geo.Options, snap snapshot.Options, logger *log.Entry) (*Server, error) {
	if logger == nil {
		logger = log.WithField("component", "web")
	}
	tmpl, err := template.ParseFS(web.Files, web.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Server{
		tracker:  tr,
		opts:     opts,
		snapshot: snap,
		logger:   logger,
		tmpl:     tmpl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local development
			},
		},
		sub: tr.Subscribe(opts, nil),
	}, nil
}

// Close releases the server's own subscription.
func (s *Server) Close() {
	s.sub.Unsubscribe()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/position", s.handlePosition)
	mux.HandleFunc("GET /"+view.SnapshotFilename, s.handleSnapshot)
	mux.HandleFunc("GET /share.png", s.handleQR)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static))))
	mux.HandleFunc("GET /", s.handlePage)
	return mux
}

type pageData struct {
	Title      string
	Background template.CSS
	Path       string
	Injected   bool
	State      view.State
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: view.Title, Path: r.URL.Path}

	if p, ok := view.ParsePath(r.URL.Path); ok {
		data.Injected = true
		data.State = view.NewState(&p, true)
	} else if r.URL.Path == view.RootPath {
		data.State = view.NewState(nil, s.tracker.Supported())
	} else {
		http.NotFound(w, r)
		return
	}
	// Built by geo.Background from numbers only.
	data.Background = template.CSS(data.State.Background)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Printf("template error: %v", err)
	}
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	p, ok := s.sub.Current()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		s.logger.Printf("json encode error: %v", err)
	}
}

// handleSnapshot renders whereiam.now.png. lat/lon (and heading) pick the
// position; without them the latest reading is used.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := s.snapshot

	if v := q.Get("square"); v != "" {
		square, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid square", http.StatusBadRequest)
			return
		}
		opts.Square = square
	}

	var st view.State
	switch p, ok, err := positionFromQuery(q.Get("lat"), q.Get("lon"), q.Get("heading")); {
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case ok:
		st = view.NewState(&p, true)
	default:
		if cur, ok := s.sub.Current(); ok {
			st = view.NewState(&cur, true)
		} else {
			st = view.NewState(nil, s.tracker.Supported())
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.SnapshotFilename))
	if err := snapshot.Render(w, st, opts); err != nil {
		s.logger.Printf("snapshot render error: %v", err)
	}
}

func positionFromQuery(latStr, lonStr, headingStr string) (geo.Position, bool, error) {
	if latStr == "" && lonStr == "" {
		return geo.Position{}, false, nil
	}
	p, ok := view.ParsePath("/" + latStr + "," + lonStr)
	if !ok {
		return geo.Position{}, false, errors.New("invalid lat/lon")
	}
	if headingStr != "" {
		h, err := strconv.ParseFloat(headingStr, 64)
		if err != nil {
			return geo.Position{}, false, errors.New("invalid heading")
		}
		p.Heading = &h
	}
	return p, true, nil
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	size := qrDefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}
		size = min(max(n, qrMinSize), qrMaxSize)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := share.WriteQRPNG(w, url, size); err != nil {
		s.logger.Printf("qr error: %v", err)
		http.Error(w, "qr encode failed", http.StatusInternalServerError)
	}
}

// RunWeb serves the page until ctx is cancelled.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()

	loc, stop, err := StartLocator(ctx, cfg, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer stop()

	srv, err := NewServer(tracker.New(loc, nil), requestOptions(cfg),
		snapshot.Options{Width: cfg.SnapshotWidth, Height: cfg.SnapshotHeight}, nil)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Println("web server shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
