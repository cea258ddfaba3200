// Package state declares room state endpoints of the client-server API.
package state

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tirr-c/ruwuma"
)

// Format selects what GetStateEventsForKey returns.
const (
	// FormatContent returns only the event content. It is the default.
	FormatContent = "content"
	// FormatEvent returns the full state event.
	FormatEvent = "event"
)

// GetStateEventsForKeyRequest looks up one state event of a room.
//
// Older clients omit an empty state key together with its trailing slash;
// such requests decode with StateKey "".
type GetStateEventsForKeyRequest struct {
	RoomID    string  `json:"-" schema:"room_id" validate:"required,startswith=!"`
	EventType string  `json:"-" schema:"event_type" validate:"required"`
	StateKey  string  `json:"-" schema:"state_key"`
	Format    *string `json:"-" schema:"format,omitempty" validate:"omitempty,oneof=content event"`
}

// GetStateEventsForKeyResponse is the raw JSON of either the event content
// or the full event, depending on the requested format.
type GetStateEventsForKeyResponse struct {
	Raw json.RawMessage
}

func (r GetStateEventsForKeyResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("{}"), nil
	}
	return r.Raw, nil
}

func (r *GetStateEventsForKeyResponse) UnmarshalJSON(data []byte) error {
	r.Raw = append(r.Raw[:0], data...)
	return nil
}

// Decode unmarshals the returned JSON into v.
func (r *GetStateEventsForKeyResponse) Decode(v any) error {
	return json.Unmarshal(r.Raw, v)
}

// GetStateEventsForKey is
// `GET /_matrix/client/*/rooms/{roomId}/state/{eventType}/{stateKey}`.
var GetStateEventsForKey = ruwuma.MustEndpoint[GetStateEventsForKeyRequest, GetStateEventsForKeyResponse]("get_state_events_for_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History: ruwuma.MustHistory(
			ruwuma.Stable(1, 0, "/_matrix/client/r0/rooms/:room_id/state/:event_type/:state_key"),
			ruwuma.Stable(1, 1, "/_matrix/client/v3/rooms/:room_id/state/:event_type/:state_key"),
		),
	}),
	ruwuma.PathField("room_id"),
	ruwuma.PathField("event_type"),
	ruwuma.OptionalPathField("state_key"),
	ruwuma.QueryField("format"),
)
