package ruwuma

import (
	"io"
	"net/http"
	"testing"
)

type profileRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required"`
}

type profileResponse struct {
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

var profileEndpoint = MustEndpoint[profileRequest, profileResponse]("get_profile",
	MustMetadata(Metadata{
		Method:         http.MethodGet,
		Authentication: AuthAccessTokenOptional,
		History: MustHistory(
			Stable(1, 0, "/_matrix/client/r0/profile/:user_id"),
			Stable(1, 1, "/_matrix/client/v3/profile/:user_id"),
		),
	}),
	PathField("user_id"),
)

type stateRequest struct {
	RoomID    string  `json:"-" schema:"room_id" validate:"required"`
	EventType string  `json:"-" schema:"event_type" validate:"required"`
	StateKey  string  `json:"-" schema:"state_key"`
	Format    *string `json:"-" schema:"format,omitempty"`
}

type stateResponse map[string]any

var stateEndpoint = MustEndpoint[stateRequest, stateResponse]("get_state_events_for_key",
	MustMetadata(Metadata{
		Method:         http.MethodGet,
		RateLimited:    false,
		Authentication: AuthAccessTokenRequired,
		History: MustHistory(
			Stable(1, 0, "/_matrix/client/r0/rooms/:room_id/state/:event_type/:state_key"),
			Stable(1, 1, "/_matrix/client/v3/rooms/:room_id/state/:event_type/:state_key"),
		),
	}),
	PathField("room_id"),
	PathField("event_type"),
	OptionalPathField("state_key"),
	QueryField("format"),
)

type reportRequest struct {
	RoomID string `json:"-" schema:"room_id" validate:"required"`
	Reason string `json:"reason,omitempty" schema:"reason"`
}

type emptyResponse struct{}

var reportEndpoint = MustEndpoint[reportRequest, emptyResponse]("report_room",
	MustMetadata(Metadata{
		Method:         http.MethodPost,
		RateLimited:    true,
		Authentication: AuthAccessTokenRequired,
		History: MustHistory(
			Unstable("/_matrix/client/unstable/org.matrix.msc4151/rooms/:room_id/report"),
			Stable(1, 13, "/_matrix/client/v3/rooms/:room_id/report"),
		),
	}),
	PathField("room_id"),
	BodyField("reason"),
)

type timezoneRequest struct {
	UserID  string `json:"-" schema:"user_id"`
	KeyName string `json:"-" schema:"key_name"`
}

// timezoneEndpoint's unstable path has the key name as a literal segment,
// so older templates carry fewer placeholders than the request has fields.
var timezoneEndpoint = MustEndpoint[timezoneRequest, emptyResponse]("delete_timezone_key",
	MustMetadata(Metadata{
		Method:         http.MethodDelete,
		RateLimited:    true,
		Authentication: AuthAccessTokenRequired,
		History: MustHistory(
			Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id/us.cloke.msc4175.tz"),
			Stable(1, 16, "/_matrix/client/v3/profile/:user_id/:key_name"),
		),
	}),
	PathField("user_id"),
	PathField("key_name"),
)

func readBody(t *testing.T, r *http.Request) string {
	t.Helper()
	if r.Body == nil {
		return ""
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
