package http

import (
	"encoding/json"
	"errors"

	"github.com/komiyunity/relay-server/internal/proto"
	"github.com/komiyunity/relay-server/internal/relay"
)

func jsonUnmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(data, v)
}

// dispatch routes one inbound event to the relay. The first return is a
// per-client error to acknowledge back to the sender; the second aborts the
// connection (malformed frames).
func (h *WSHandler) dispatch(sess *relay.Session, inbound proto.Inbound) (*relay.RelayError, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var data proto.RoomData
		if err := jsonUnmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return asRelayError(h.router.Join(sess.ID, data.Room))
	case proto.InboundTypeLeave:
		var data proto.RoomData
		if err := jsonUnmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		return asRelayError(h.router.Leave(sess.ID, data.Room))
	case proto.InboundTypeChat:
		var data proto.ChatData
		if err := jsonUnmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		// Identity-looking fields in data are ignored; the router stamps
		// the authenticated principal.
		return asRelayError(h.router.Route(sess.ID, data.Room, data.Message))
	case proto.InboundTypeHello:
		// Already authenticated; a second hello is a protocol misuse.
		return &relay.RelayError{Code: relay.ErrCodeBadRequest, Message: "already authenticated"}, nil
	default:
		return &relay.RelayError{Code: relay.ErrCodeBadRequest, Message: "unknown event type"}, nil
	}
}

func asRelayError(err error) (*relay.RelayError, error) {
	if err == nil {
		return nil, nil
	}
	var relayErr *relay.RelayError
	if errors.As(err, &relayErr) {
		return relayErr, nil
	}
	return nil, err
}

func outboundFromEvent(ev relay.Event) proto.Outbound {
	switch ev.Kind {
	case relay.EventChatMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeChat,
			Data: proto.ChatEvent{
				SenderID:   ev.Message.SenderID,
				SenderName: ev.Message.SenderName,
				Message:    ev.Message.Body,
				Timestamp:  ev.Message.SentAt.UnixMilli(),
				Room:       ev.Message.Room,
			},
		}
	case relay.EventError:
		if ev.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
}
