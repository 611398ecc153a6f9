package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/auth"
	"github.com/komiyunity/relay-server/internal/config"
	"github.com/komiyunity/relay-server/internal/proto"
	"github.com/komiyunity/relay-server/internal/relay"
	"github.com/komiyunity/relay-server/internal/store"
)

// WSHandler is the connection gateway: it upgrades the transport, runs the
// handshake, and only registers connections whose credential verifies. No
// application event is processed before that point.
type WSHandler struct {
	verifier  auth.Verifier
	registry  *relay.Registry
	router    *relay.Router
	lifecycle *relay.Lifecycle
	users     store.UserStore // optional; last-login touch is best-effort
	cfg       *config.Config
	log       *zerolog.Logger
}

// NewWSHandler builds the gateway handler.
func NewWSHandler(verifier auth.Verifier, registry *relay.Registry, router *relay.Router, lifecycle *relay.Lifecycle, users store.UserStore, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		verifier:  verifier,
		registry:  registry,
		router:    router,
		lifecycle: lifecycle,
		users:     users,
		cfg:       cfg,
		log:       logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	sess, rejection, err := h.handshake(ctx, conn)
	if err != nil {
		// Transport died mid-handshake; nothing was registered.
		h.log.Debug().Err(err).Msg("handshake aborted")
		return
	}
	if rejection != nil {
		h.log.Info().Str("reason", rejection.Code).Msg("connection rejected")
		_ = wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: rejection})
		conn.Close(websocket.StatusPolicyViolation, rejection.Code)
		return
	}

	h.log.Info().
		Str("conn_id", sess.ID).
		Str("uid", sess.Principal.UID).
		Str("email", sess.Principal.Email).
		Msg("connection admitted")

	defer h.lifecycle.OnDisconnect(sess.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake reads the hello frame and verifies its credential within the
// configured deadline. It returns a registered session, or a rejection to
// send before closing, or a transport error.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (*relay.Session, *proto.Error, error) {
	hsCtx, cancel := context.WithTimeout(ctx, h.cfg.HandshakeTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(hsCtx, conn, &inbound); err != nil {
		if errors.Is(hsCtx.Err(), context.DeadlineExceeded) {
			// No credential arrived in time; same class as a stale token.
			return nil, &proto.Error{Code: auth.ReasonExpiredToken, Msg: "handshake timed out"}, nil
		}
		return nil, nil, err
	}
	if inbound.Type != proto.InboundTypeHello {
		return nil, &proto.Error{Code: auth.ReasonMissingToken, Msg: "handshake must start with hello"}, nil
	}

	var hello proto.HelloData
	if len(inbound.Data) > 0 {
		if err := jsonUnmarshal(inbound.Data, &hello); err != nil {
			return nil, &proto.Error{Code: auth.ReasonMissingToken, Msg: "malformed hello payload"}, nil
		}
	}

	principal, err := h.verifier.Verify(hsCtx, hello.Token)
	if err != nil {
		var reject *auth.RejectError
		if errors.As(err, &reject) {
			return nil, &proto.Error{Code: reject.Reason, Msg: reject.Error()}, nil
		}
		return nil, &proto.Error{Code: auth.ReasonVerificationError, Msg: "could not verify credential"}, nil
	}

	sess := relay.NewSession(uuid.NewString(), *principal, h.cfg.SessionBuffer)
	if err := h.registry.Register(sess); err != nil {
		return nil, &proto.Error{Code: auth.ReasonVerificationError, Msg: "registration failed"}, nil
	}

	if h.users != nil {
		if err := h.users.TouchLastLogin(ctx, principal.UID); err != nil && !errors.Is(err, store.ErrNotFound) {
			h.log.Warn().Err(err).Str("uid", principal.UID).Msg("last-login touch failed")
		}
	}

	return sess, nil, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *relay.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		relayErr, err := h.dispatch(sess, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", sess.ID).Msg("failed to map inbound")
			return err
		}
		if relayErr != nil {
			// Sender-only notice; recipients never see dropped messages.
			if dErr := sess.Deliver(relay.Event{Kind: relay.EventError, Error: relayErr}); dErr != nil {
				return dErr
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *relay.Session) error {
	for {
		select {
		case ev := <-sess.Events():
			if err := wsjson.Write(ctx, conn, outboundFromEvent(ev)); err != nil {
				h.log.Error().Err(err).Str("conn_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-sess.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
