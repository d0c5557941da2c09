package http

import (
	"encoding/json"
	"fmt"

	"github.com/deepblue-labs/collab-server/internal/core"
	"github.com/deepblue-labs/collab-server/internal/presence"
	"github.com/deepblue-labs/collab-server/internal/proto"
)

// inboundToCommand maps a wire event to a core command. Malformed or unknown
// events return an error; the caller drops them silently per the protocol
// contract (no reply other than authentication failures).
func inboundToCommand(inbound proto.Inbound) (*core.Command, error) {
	switch inbound.Type {
	case proto.InboundTypeAuthenticate:
		// Tolerate malformed payloads: the hub replies auth_failed to the
		// sender, which is the one error clients are told about.
		var data proto.AuthenticateData
		_ = json.Unmarshal(inbound.Data, &data)
		return &core.Command{
			Kind: core.CommandAuthenticate,
			Auth: &core.AuthData{UserID: data.UserID, RoomID: data.ProjectID, Token: data.Token},
		}, nil
	case proto.InboundTypeCursorUpdate:
		var data proto.CursorData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("cursor payload: %w", err)
		}
		return &core.Command{
			Kind:   core.CommandCursorUpdate,
			Cursor: &presence.Cursor{Line: data.Line, Column: data.Column},
		}, nil
	case proto.InboundTypeFileChange:
		var data proto.FileChangeData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("file change payload: %w", err)
		}
		return &core.Command{
			Kind: core.CommandFileChange,
			File: &core.FileChange{FileID: data.FileID, Content: data.Content, Changes: data.Changes},
		}, nil
	case proto.InboundTypeChatMessage:
		var data proto.ChatData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, fmt.Errorf("chat payload: %w", err)
		}
		return &core.Command{
			Kind: core.CommandChatMessage,
			Chat: &core.ChatData{Content: data.Message, Kind: data.Kind},
		}, nil
	case proto.InboundTypeTypingStart:
		return &core.Command{Kind: core.CommandTypingStart}, nil
	case proto.InboundTypeTypingStop:
		return &core.Command{Kind: core.CommandTypingStop}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", inbound.Type)
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	ts := event.Timestamp.UnixMilli()

	switch event.Kind {
	case core.EventMemberJoined:
		return eventOutbound(proto.EventMemberJoined, proto.MemberEvent{
			UserID: event.User, ConnectionID: event.ConnID, Timestamp: ts,
		})
	case core.EventMemberLeft:
		return eventOutbound(proto.EventMemberLeft, proto.MemberEvent{
			UserID: event.User, ConnectionID: event.ConnID, Timestamp: ts,
		})
	case core.EventCursorUpdate:
		return eventOutbound(proto.EventCursorUpdate, proto.CursorEvent{
			UserID:    event.User,
			Position:  proto.Position{Line: event.Cursor.Line, Column: event.Cursor.Column},
			Timestamp: ts,
		})
	case core.EventFileChange:
		return eventOutbound(proto.EventFileChange, proto.FileChangeEvent{
			FileID:    event.File.FileID,
			Content:   event.File.Content,
			Changes:   event.File.Changes,
			UserID:    event.User,
			Timestamp: ts,
		})
	case core.EventChatMessage:
		return eventOutbound(proto.EventChatMessage, proto.ChatMessageEvent{
			ID:        event.Chat.ID,
			UserID:    event.User,
			RoomID:    event.Room,
			Content:   event.Chat.Content,
			Kind:      event.Chat.Kind,
			Timestamp: ts,
		})
	case core.EventTypingStart:
		return eventOutbound(proto.EventTypingStart, proto.TypingEvent{UserID: event.User, Timestamp: ts})
	case core.EventTypingStop:
		return eventOutbound(proto.EventTypingStop, proto.TypingEvent{UserID: event.User, Timestamp: ts})
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(event string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: event, Data: data}
}
