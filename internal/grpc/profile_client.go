package grpc

import (
	"context"
	"errors"

	profilepb "gathering-service/pb/profile"
)

// ProfileDirectory resolves user summaries from the profile service.
// Declared as an interface so handlers can be tested against a mock.
type ProfileDirectory interface {
	GetUser(ctx context.Context, userID int) (*profilepb.GetUserResponse, error)
	BulkUsers(ctx context.Context, ids []int) ([]*profilepb.GetUserResponse, error)
}

// ProfileClient wraps the profile-service gRPC client.
type ProfileClient struct {
	client profilepb.ProfileServiceClient
}

// NewProfileClient constructs the wrapper.
func NewProfileClient(client profilepb.ProfileServiceClient) *ProfileClient {
	return &ProfileClient{client: client}
}

// GetUser retrieves one user summary.
func (p *ProfileClient) GetUser(ctx context.Context, userID int) (*profilepb.GetUserResponse, error) {
	resp, err := p.client.GetUser(ctx, &profilepb.GetUserRequest{UserId: int64(userID)})
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.GetId() == 0 {
		return nil, errors.New("user not found")
	}
	return resp, nil
}

// BulkUsers fetches multiple user summaries in one call.
func (p *ProfileClient) BulkUsers(ctx context.Context, ids []int) ([]*profilepb.GetUserResponse, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	userIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		userIDs = append(userIDs, int64(id))
	}

	resp, err := p.client.BulkUsers(ctx, &profilepb.BulkUsersRequest{UserIds: userIDs})
	if err != nil {
		return nil, err
	}
	return resp.GetUsers(), nil
}

var _ ProfileDirectory = (*ProfileClient)(nil)
