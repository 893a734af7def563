package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/internal/chat/registry"
)

// registerTimeout - bounds host resolution of !register.
const registerTimeout = 5 * time.Second

// serveConn - protocol state machine of single TCP connection.
// Unauthenticated connection gets exactly one chance to log in.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	// shutdown releases blocked reads
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	log := s.logger.With(zap.Stringer("remote", conn.RemoteAddr()))
	lines := protocol.NewScanner(conn)

	conn.SetReadDeadline(time.Now().Add(s.loginTimeout))
	if !lines.Scan() {
		log.Debug("connection closed before login", zap.Error(lines.Err()))
		return
	}
	cmd, err := protocol.Parse(lines.Text())
	if err != nil || cmd.Verb != protocol.VerbLogin {
		perr := &protocol.Error{}
		reply := protocol.NotLoggedIn
		if errors.As(err, &perr) && perr.Verb == protocol.VerbLogin {
			reply = "Error: " + perr.Error()
			s.metrics.logins.WithLabelValues("malformed").Inc()
		}
		s.reply(conn, reply)
		return
	}

	username, password := cmd.Args[0], cmd.Args[1]
	log = log.With(zap.String("user", username))
	out := newOutbox(conn, s.outboxSize, s.writeTimeout)
	session, err := s.registry.TryLogin(username, password, out)
	switch {
	case errors.Is(err, registry.ErrAlreadyOnline):
		s.metrics.logins.WithLabelValues("already_online").Inc()
		log.Info("login refused, already online")
		s.reply(conn, protocol.LoginAlreadyOnline(username))
		return
	case err != nil:
		s.metrics.logins.WithLabelValues("bad_credentials").Inc()
		log.Info("login refused, bad credentials")
		s.reply(conn, protocol.LoginBadCredentials)
		return
	}

	// outbox is not running yet, so the reply precedes any broadcast already queued
	s.reply(conn, protocol.LoginSucceeded)
	go out.maintain()

	s.metrics.logins.WithLabelValues("accepted").Inc()
	s.metrics.sessionsOnline.Inc()
	log = log.With(zap.String("session", string(session.Handle)))
	log.Info("logged in")

	logout, readErr := s.serveSession(ctx, session, conn, lines, log)

	// the only teardown path of session
	s.registry.Leave(session)
	out.close()
	conn.Close()
	s.metrics.sessionsOnline.Dec()

	reason := reasonLogout
	if !logout {
		if readErr == nil {
			readErr = out.failure()
		}
		reason = classifyPart(readErr, out.overflowed(), ctx.Err() != nil)
	}
	s.metrics.sessionsClosed.WithLabelValues(reason.String()).Inc()
	log.Info("session closed", zap.Stringer("reason", reason), zap.Error(readErr))
}

// serveSession - reads commands of authenticated session until !logout, end of stream or I/O error.
func (s *Server) serveSession(
	ctx context.Context,
	session registry.Session,
	conn net.Conn,
	lines *bufio.Scanner,
	log *zap.Logger,
) (logout bool, readErr error) {
	for {
		conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		if !lines.Scan() {
			return false, lines.Err()
		}
		cmd, err := protocol.Parse(lines.Text())
		switch {
		case errors.Is(err, protocol.ErrEmpty):
			continue
		case err != nil:
			s.send(session, protocol.ErrorNotice(err), log)
			continue
		}

		switch cmd.Verb {
		case protocol.VerbLogout:
			return true, nil
		case protocol.VerbLogin:
			s.send(session, protocol.ErrorNotice(errAlreadyLoggedIn), log)
		case protocol.VerbSend:
			text := protocol.Clean(cmd.Text)
			if strings.TrimSpace(text) == "" {
				s.send(session, protocol.ErrorNotice(&protocol.Error{
					Verb:  protocol.VerbSend,
					Usage: protocol.ServerGrammar[protocol.VerbSend].Usage,
				}), log)
				continue
			}
			s.broadcast(session.Username, text, log)
		case protocol.VerbRegister:
			s.register(ctx, session, cmd.Args[0], log)
		case protocol.VerbLookup:
			target := cmd.Args[0]
			if address, ok := s.registry.Lookup(target); ok {
				s.send(session, protocol.LookupResult(target, address), log)
			} else {
				s.send(session, protocol.LookupNotFound(target), log)
			}
		}
	}
}

func (s *Server) broadcast(sender, text string, log *zap.Logger) {
	n := s.registry.Broadcast(sender, text, func(username string, err error) {
		log.Warn("broadcast not delivered", zap.String("recipient", username), zap.Error(err))
	})
	s.metrics.broadcasts.Inc()
	s.metrics.deliveries.Add(float64(n))
	log.Debug("broadcast", zap.Int("recipients", n))
}

func (s *Server) register(ctx context.Context, session registry.Session, address string, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()
	if err := s.registry.Register(ctx, session.Username, address); err != nil {
		log.Info("address rejected", zap.String("address", address), zap.Error(err))
		s.send(session, protocol.RegisterFailed(), log)
		return
	}
	log.Info("address registered", zap.String("address", address))
	s.send(session, protocol.RegisterSucceeded(session.Username), log)
}

// send - enqueues reply into session's own outbox, so it keeps order with broadcasts.
func (s *Server) send(session registry.Session, line string, log *zap.Logger) {
	if err := s.registry.Send(session.Handle, line); err != nil {
		log.Debug("reply not delivered", zap.Error(err))
	}
}

// reply - writes line directly, used before outbox exists.
func (s *Server) reply(conn net.Conn, line string) {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := protocol.WriteLine(conn, line); err != nil {
		s.logger.Debug("reply failed", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
	}
}
