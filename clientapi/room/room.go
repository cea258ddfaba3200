// Package room declares room moderation endpoints of the client-server API.
package room

import (
	"net/http"

	"github.com/tirr-c/ruwuma"
)

// ReportRoomRequest reports a room to the homeserver administrators.
type ReportRoomRequest struct {
	RoomID string `json:"-" schema:"room_id" validate:"required,startswith=!"`
	// Reason may be blank.
	Reason *string `json:"reason,omitempty" schema:"reason,omitempty"`
}

// ReportRoomResponse is empty.
type ReportRoomResponse struct{}

// ReportRoom is `POST /_matrix/client/*/rooms/{roomId}/report`.
var ReportRoom = ruwuma.MustEndpoint[ReportRoomRequest, ReportRoomResponse]("report_room",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodPost,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History: ruwuma.MustHistory(
			ruwuma.Unstable("/_matrix/client/unstable/org.matrix.msc4151/rooms/:room_id/report"),
			ruwuma.Stable(1, 0, "/_matrix/client/v3/rooms/:room_id/report"),
		),
	}),
	ruwuma.PathField("room_id"),
	ruwuma.BodyField("reason"),
)
