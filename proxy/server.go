package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/monero/client/rpc"
	"github.com/sturdilythatch87/tari/utils"
)

// DefaultMaxRequestBytes inbound bodies above this are refused before forwarding
const DefaultMaxRequestBytes = 16 * 1024 * 1024

// Upstream monerod, as seen by the proxy
type Upstream interface {
	Forward(ctx context.Context, method, requestURI string, header http.Header, body []byte) (*rpc.Response, error)
}

// BaseNode auxiliary chain node
type BaseNode interface {
	GetTipInfo(ctx context.Context) (uint64, error)
	GetNewBlockTemplate(ctx context.Context, algo basenode.PowAlgo) (*basenode.NewBlockTemplate, error)
	GetNewBlock(ctx context.Context, template *basenode.NewBlockTemplate) (*basenode.Block, *basenode.MiningData, error)
	SubmitBlock(ctx context.Context, block *basenode.Block) error
}

type Config struct {
	Listen          string
	MaxRequestBytes int64
	Rules           *basenode.ConsensusRules
}

// request inbound request, body already read
type request struct {
	body []byte
}

// handlerFunc post-processes a successful upstream response
type handlerFunc func(ctx context.Context, req *request, resp *rpc.Response) (*rpc.Response, error)

// Server forwards every request to monerod, rewriting the responses of the mining endpoints
type Server struct {
	config   Config
	upstream Upstream
	baseNode BaseNode
	state    *State
	metrics  *Metrics

	router     *mux.Router
	httpServer *http.Server
}

func NewServer(config Config, upstream Upstream, baseNode BaseNode, state *State, metrics *Metrics) *Server {
	if config.MaxRequestBytes <= 0 {
		config.MaxRequestBytes = DefaultMaxRequestBytes
	}

	s := &Server{
		config:   config,
		upstream: upstream,
		baseNode: baseNode,
		state:    state,
		metrics:  metrics,
		router:   mux.NewRouter(),
	}

	for _, path := range []string{"/get_height", "/getheight"} {
		s.router.Path(path).Methods(http.MethodGet).Handler(s.forward(s.handleGetHeight))
	}
	for _, path := range []string{"/get_block_template", "/getblocktemplate"} {
		s.router.Path(path).Methods(http.MethodPost).Handler(s.forward(s.handleGetBlockTemplate))
	}
	for _, path := range []string{"/submit_block", "/submitblock"} {
		s.router.Path(path).Methods(http.MethodPost).Handler(s.forward(s.handleSubmitBlock))
	}
	s.router.PathPrefix("/").Handler(s.forward(nil))

	s.httpServer = &http.Server{
		Addr:              config.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server fails or Shutdown is called
func (s *Server) ListenAndServe() error {
	utils.Logf("Proxy", "listening on %s", s.config.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Serve(listener net.Listener) error {
	if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) forward(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes))
		if err != nil {
			utils.Errorf("Proxy", "read request %s %s: %s", r.Method, r.URL.Path, err)
			writeResponse(w, jsonResponse(http.StatusInternalServerError, internalErrorBody))
			return
		}

		utils.Debugf("Proxy", "forwarding %s %s", r.Method, r.URL.RequestURI())

		resp, err := s.upstream.Forward(r.Context(), r.Method, r.URL.RequestURI(), r.Header, body)
		if err != nil {
			s.metrics.UpstreamErrors.Inc()
			utils.Errorf("Monerod", "%s %s: %s", r.Method, r.URL.Path, err)
			writeResponse(w, jsonResponse(http.StatusInternalServerError, internalErrorBody))
			return
		}

		if !resp.IsSuccess() {
			utils.Debugf("Monerod", "%s %s returned status %d", r.Method, r.URL.Path, resp.StatusCode)
			writeResponse(w, resp)
			return
		}

		if h != nil {
			if resp, err = h(r.Context(), &request{body: body}, resp); err != nil {
				s.countError(err)
				utils.Errorf("Proxy", "%s %s: %s", r.Method, r.URL.Path, err)
				writeResponse(w, jsonResponse(http.StatusInternalServerError, internalErrorBody))
				return
			}
		}

		writeResponse(w, resp)
	}
}

func (s *Server) countError(err error) {
	switch {
	case errors.Is(err, basenode.ErrRemoteCall), errors.Is(err, basenode.ErrMalformedResponse):
		s.metrics.BaseNodeErrors.Inc()
	case errors.Is(err, ErrMalformedUpstreamResponse):
		s.metrics.UpstreamErrors.Inc()
	}
}

var responseHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Connection",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

func writeResponse(w http.ResponseWriter, resp *rpc.Response) {
	header := w.Header()
	for k, values := range resp.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	for _, k := range responseHopHeaders {
		header.Del(k)
	}
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		utils.Debugf("Proxy", "write response: %s", err)
	}
}
