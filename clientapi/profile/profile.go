// Package profile declares the user profile endpoints of the client-server
// API, including the extended profile fields of MSC4133 and the time zone
// field of MSC4175.
package profile

import (
	"net/http"

	"github.com/tirr-c/ruwuma"
)

// TimeZoneKey is the profile field holding a user's IANA time zone while
// MSC4175 is unstable.
const TimeZoneKey = "us.cloke.msc4175.tz"

// GetProfileRequest asks for every profile field of a user.
type GetProfileRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required,startswith=@"`
}

// GetProfileResponse holds the well-known profile fields. Absent fields are
// left empty.
type GetProfileResponse struct {
	AvatarURL   string `json:"avatar_url,omitempty"`
	DisplayName string `json:"displayname,omitempty"`
	TimeZone    string `json:"us.cloke.msc4175.tz,omitempty"`
}

// GetProfile is `GET /_matrix/client/*/profile/{userId}`.
var GetProfile = ruwuma.MustEndpoint[GetProfileRequest, GetProfileResponse]("get_profile",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthNone,
		History: ruwuma.MustHistory(
			ruwuma.Unstable("/_matrix/client/unstable/uk.tcpip.msc4133/profile/:user_id"),
			ruwuma.Stable(1, 0, "/_matrix/client/r0/profile/:user_id"),
			ruwuma.Stable(1, 1, "/_matrix/client/v3/profile/:user_id"),
		),
	}),
	ruwuma.PathField("user_id"),
)
