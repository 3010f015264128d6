package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/mandelsoft/dbinit/pkg/service"
)

type Server struct {
	*http.Server
	*http.ServeMux
}

// NewServer creates a server for the given address.
// With def the handlers registered globally with Register
// are served, too.
func NewServer(addr string, def bool) *Server {
	mux := http.NewServeMux()
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if def {
		mux.Handle("/", default_mux)
	}
	return &Server{
		Server:   server,
		ServeMux: mux,
	}
}

func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.Addr)
}

// ServeContext serves requests on the given listener until the
// context is done. The server is then shut down gracefully.
func (s *Server) ServeContext(ctx context.Context, l net.Listener, shutdownTimeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Serve(l)
	}()
	log.Info("serving on {{address}}", "address", l.Addr().String())

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.Shutdown(ctx)
	case err = <-serverErr:
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// AsService provides the server as service. It is ready as
// soon as it listens on its address.
func (s *Server) AsService(shutdownTimeout time.Duration) service.Service {
	return &serverService{server: s, timeout: shutdownTimeout}
}

type serverService struct {
	server  *Server
	timeout time.Duration
}

func (s *serverService) Name() string {
	return "http server"
}

func (s *serverService) Start(ctx context.Context) (service.Syncher, service.Syncher, error) {
	l, err := s.server.Listen()
	if err != nil {
		return nil, nil, err
	}
	done := service.NewSignal()
	go func() {
		done.Done(s.server.ServeContext(ctx, l, s.timeout))
	}()
	return nil, done, nil
}
