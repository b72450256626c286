package wsfeed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
)

// Server exposes a source.Source to wsfeed clients.
type Server struct {
	src      source.Source
	config   *Config
	log      logr.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a server answering from src.
func NewServer(src source.Source, config *Config, log logr.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		src:      src,
		config:   config,
		log:      log,
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}
}

// ServeHTTP upgrades the request and answers requests until the peer goes
// away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.V(1).Info("websocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}
	defer conn.Close()
	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}

	log := s.log.WithValues("remote", r.RemoteAddr)
	log.V(1).Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if s.config.MaxConcurrent > 0 {
		g.SetLimit(s.config.MaxConcurrent)
	}
	var writeMu sync.Mutex
	send := func(resp Response) {
		data, err := json.Marshal(resp)
		if err != nil {
			log.Error(err, "failed to encode response", "id", resp.ID)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if s.config.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.V(1).Info("failed to send response", "id", resp.ID, "error", err.Error())
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			send(Response{Error: fmt.Sprintf("%v: %v", ErrBadRequest, err), Code: CodeBadRequest})
			continue
		}
		g.Go(func() error {
			send(s.handle(gctx, req))
			return nil
		})
	}

	cancel()
	_ = g.Wait()
	log.V(1).Info("client disconnected")
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	var (
		out []resources.Resource
		err error
	)
	switch req.Op {
	case OpList:
		out, err = s.src.List(ctx, req.Kind)
	case OpChildren:
		out, err = s.src.Children(ctx, req.Kind, req.Key)
	default:
		err = fmt.Errorf("%w: unknown op %q", ErrBadRequest, req.Op)
	}
	if err != nil {
		return Response{ID: req.ID, Error: err.Error(), Code: errorCode(err)}
	}
	return Response{ID: req.ID, Resources: out}
}
