package profile

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tirr-c/ruwuma"
)

// Fields is a set of profile fields keyed by field name.
type Fields map[string]any

// GetProfileKeyRequest asks for one profile field.
type GetProfileKeyRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required,startswith=@"`
	Key    string `json:"-" schema:"key_name" validate:"required"`
}

// GetProfileKey is `GET /_matrix/client/*/profile/{userId}/{keyName}`.
// The response is a single-entry object keyed by the field name.
var GetProfileKey = ruwuma.MustEndpoint[GetProfileKeyRequest, Fields]("get_profile_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthNone,
		History: ruwuma.MustHistory(
			ruwuma.Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id/:key_name"),
		),
	}),
	ruwuma.PathField("user_id"),
	ruwuma.PathField("key_name"),
)

// DeleteProfileKeyRequest removes one profile field. Fields is sent as the
// whole JSON body.
type DeleteProfileKeyRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required,startswith=@"`
	Key    string `json:"-" schema:"key_name" validate:"required"`
	Fields Fields `json:"-" schema:"-"`
}

func (r DeleteProfileKeyRequest) MarshalJSON() ([]byte, error) {
	if r.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Fields)
}

func (r *DeleteProfileKeyRequest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Fields)
}

// EmptyResponse is the {} answer of endpoints that only acknowledge.
type EmptyResponse struct{}

// DeleteProfileKey is `DELETE /_matrix/client/*/profile/{userId}/{keyName}`.
var DeleteProfileKey = ruwuma.MustEndpoint[DeleteProfileKeyRequest, EmptyResponse]("delete_profile_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodDelete,
		RateLimited:    true,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History: ruwuma.MustHistory(
			ruwuma.Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id/:key_name"),
		),
	}),
	ruwuma.PathField("user_id"),
	ruwuma.PathField("key_name"),
	ruwuma.BodyField("fields"),
)
