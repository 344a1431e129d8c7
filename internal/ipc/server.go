package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"wax/internal/daemon"
	"wax/internal/logging"
	"wax/internal/services"
)

// ServiceName is the RPC service the daemon registers.
const ServiceName = "Wax"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "recognizer events may be dropped"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) StartSession(req StartSessionRequest, resp *StartSessionResponse) error {
	s.logger.Debug("session start requested", logging.Strings("recorders", req.Recorders))
	info, err := s.daemon.StartSession(s.ctx, req.Recorders)
	resp.Session = sessionInfo(info)
	resp.Failure = failure(err)
	return nil
}

func (s *service) StopSession(_ StopSessionRequest, resp *StopSessionResponse) error {
	s.logger.Debug("session stop requested")
	info, err := s.daemon.StopSession(s.ctx)
	resp.Session = sessionInfo(info)
	resp.Failure = failure(err)
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.IndexPath = status.IndexPath
	if status.Session != nil {
		resp.Session = sessionInfo(*status.Session)
	}
	if len(status.Dependencies) > 0 {
		resp.Dependencies = make([]DependencyStatus, 0, len(status.Dependencies))
		for _, dep := range status.Dependencies {
			resp.Dependencies = append(resp.Dependencies, DependencyStatus{
				Name:        dep.Name,
				Command:     dep.Command,
				Description: dep.Description,
				Optional:    dep.Optional,
				Available:   dep.Available,
				Detail:      dep.Detail,
			})
		}
	}
	return nil
}

func (s *service) PrePhrase(req PrePhraseRequest, resp *PhraseResponse) error {
	result, err := s.daemon.PrePhrase(s.ctx, req.Event)
	resp.Outcome = string(result.Outcome)
	resp.PhraseID = result.PhraseID
	resp.Warnings = result.Warnings
	resp.Failure = failure(err)
	return nil
}

func (s *service) PostPhrase(req PostPhraseRequest, resp *PhraseResponse) error {
	result, err := s.daemon.PostPhrase(s.ctx, req.Event)
	resp.Outcome = string(result.Outcome)
	resp.PhraseID = result.PhraseID
	resp.Warnings = result.Warnings
	resp.Failure = failure(err)
	return nil
}

func (s *service) Screenshot(req ScreenshotRequest, resp *ScreenshotResponse) error {
	err := s.daemon.Screenshot(s.ctx, req.Name)
	if err != nil && !errors.Is(err, services.ErrNoSession) {
		s.logger.Warn("named screenshot failed",
			logging.String("name", req.Name),
			logging.Error(err),
			logging.String(logging.FieldEventType, "screenshot_failed"),
			logging.String(logging.FieldImpact, "screenshot missing from the capture window"))
	}
	resp.Failure = failure(err)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	result, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = result.Sent
	resp.Channels = result.Channels
	resp.Message = result.Message
	return nil
}
