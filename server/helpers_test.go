package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/tirr-c/ruwuma"
)

type profileRequest struct {
	UserID string `json:"-" schema:"user_id" validate:"required"`
}

type profileResponse struct {
	DisplayName string `json:"displayname,omitempty"`
}

var getProfile = ruwuma.MustEndpoint[profileRequest, profileResponse]("get_profile",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthAccessTokenOptional,
		History: ruwuma.MustHistory(
			ruwuma.Stable(1, 0, "/_matrix/client/r0/profile/:user_id"),
			ruwuma.Stable(1, 1, "/_matrix/client/v3/profile/:user_id"),
		),
	}),
	ruwuma.PathField("user_id"),
)

type stateRequest struct {
	RoomID    string `json:"-" schema:"room_id"`
	EventType string `json:"-" schema:"event_type"`
	StateKey  string `json:"-" schema:"state_key"`
}

type stateResponse map[string]any

var getState = ruwuma.MustEndpoint[stateRequest, stateResponse]("get_state_events_for_key",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodGet,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History: ruwuma.MustHistory(
			ruwuma.Stable(1, 1, "/_matrix/client/v3/rooms/:room_id/state/:event_type/:state_key"),
		),
	}),
	ruwuma.PathField("room_id"),
	ruwuma.PathField("event_type"),
	ruwuma.OptionalPathField("state_key"),
)

type reportRequest struct {
	RoomID string `json:"-" schema:"room_id"`
	Reason string `json:"reason,omitempty" schema:"reason"`
}

type emptyResponse struct{}

var reportRoom = ruwuma.MustEndpoint[reportRequest, emptyResponse]("report_room",
	ruwuma.MustMetadata(ruwuma.Metadata{
		Method:         http.MethodPost,
		RateLimited:    true,
		Authentication: ruwuma.AuthAccessTokenRequired,
		History: ruwuma.MustHistory(
			ruwuma.Unstable("/_matrix/client/unstable/org.matrix.msc4151/rooms/:room_id/report"),
			ruwuma.Stable(1, 13, "/_matrix/client/v3/rooms/:room_id/report"),
		),
	}),
	ruwuma.PathField("room_id"),
	ruwuma.BodyField("reason"),
)

func profileHandler(ctx context.Context, req *profileRequest) (*profileResponse, error) {
	if req.UserID != "@alice:example.org" {
		return nil, ruwuma.NewError(ruwuma.CodeNotFound, "Profile not found")
	}
	return &profileResponse{DisplayName: "Alice"}, nil
}

func stateHandler(ctx context.Context, req *stateRequest) (*stateResponse, error) {
	return &stateResponse{
		"room_id":    req.RoomID,
		"event_type": req.EventType,
		"state_key":  req.StateKey,
	}, nil
}

func reportHandler(ctx context.Context, req *reportRequest) (*emptyResponse, error) {
	return nil, nil
}

func newTestApp() *App {
	return NewApp().Register(
		NewHandler(getProfile, profileHandler),
		NewHandler(getState, stateHandler),
		NewHandler(reportRoom, reportHandler),
	)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
