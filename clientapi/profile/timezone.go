package profile

import (
	"net/http"

	"github.com/tirr-c/ruwuma"
)

// The time zone field has fixed paths of its own rather than going through
// the generic key endpoints.
var timeZoneHistory = ruwuma.MustHistory(
	ruwuma.Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id/us.cloke.msc4175.tz"),
)

// TimeZoneRequest names the user whose time zone is read or deleted.
type TimeZoneRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required,startswith=@"`
}

// TimeZoneResponse carries the time zone, empty when unset.
type TimeZoneResponse struct {
	TimeZone string `json:"us.cloke.msc4175.tz,omitempty"`
}

// GetTimeZoneKey is `GET /_matrix/client/*/profile/{userId}/us.cloke.msc4175.tz`.
var GetTimeZoneKey = ruwuma.MustEndpoint[TimeZoneRequest, TimeZoneResponse]("get_timezone_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthNone,
		History:        timeZoneHistory,
	}),
	ruwuma.PathField("user_id"),
)

// SetTimeZoneKeyRequest sets the time zone of a user. An empty TimeZone
// sends {}.
type SetTimeZoneKeyRequest struct {
	UserID   string `json:"-" schema:"user_id" validate:"required,startswith=@"`
	TimeZone string `json:"us.cloke.msc4175.tz,omitempty" schema:"tz"`
}

// SetTimeZoneKey is `PUT /_matrix/client/*/profile/{userId}/us.cloke.msc4175.tz`.
var SetTimeZoneKey = ruwuma.MustEndpoint[SetTimeZoneKeyRequest, EmptyResponse]("set_timezone_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodPut,
		RateLimited:    true,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History:        timeZoneHistory,
	}),
	ruwuma.PathField("user_id"),
	ruwuma.BodyField(TimeZoneKey),
)

// DeleteTimeZoneKey is `DELETE /_matrix/client/*/profile/{userId}/us.cloke.msc4175.tz`.
var DeleteTimeZoneKey = ruwuma.MustEndpoint[TimeZoneRequest, EmptyResponse]("delete_timezone_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodDelete,
		RateLimited:    true,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History:        timeZoneHistory,
	}),
	ruwuma.PathField("user_id"),
)
