package server

import (
	"context"

	"github.com/startupverse/dashboard/pkg/sdk"
)

// Backend is the REST backend as used by the pages. *sdk.Client implements it.
type Backend interface {
	ListStartups(ctx context.Context) ([]sdk.Startup, error)
	GetStartup(ctx context.Context, id string) (*sdk.Startup, error)
	CreateStartup(ctx context.Context, input sdk.CreateStartupInput) (*sdk.Startup, error)
	GetMemo(ctx context.Context, id string) (*sdk.Memo, error)
	ListMemos(ctx context.Context) ([]sdk.Memo, error)
	FounderDashboard(ctx context.Context) (*sdk.FounderDashboard, error)
	Signup(ctx context.Context, input sdk.SignupInput) error
	GoogleSignIn(ctx context.Context) error
	Me(ctx context.Context) (*sdk.Me, error)
	ListUsers(ctx context.Context) ([]sdk.User, error)
	ListMeetings(ctx context.Context) ([]sdk.Meeting, error)
	CreateMeeting(ctx context.Context, input sdk.CreateMeetingInput) (*sdk.Meeting, error)
}

var _ Backend = (*sdk.Client)(nil)

// BackendFactory returns a backend authenticated with the given ID token.
type BackendFactory func(idToken string) Backend

// SDKBackend adapts an sdk client into a BackendFactory.
func SDKBackend(client *sdk.Client) BackendFactory {
	return func(idToken string) Backend {
		return client.ForToken(idToken)
	}
}
