package grpc

import (
	"context"
	"errors"

	authpb "gathering-service/pb/auth"
)

// AuthClient wraps the auth-service gRPC client.
type AuthClient struct {
	client authpb.AuthServiceClient
}

// NewAuthClient constructs the wrapper.
func NewAuthClient(client authpb.AuthServiceClient) *AuthClient {
	return &AuthClient{client: client}
}

// ValidateToken verifies the bearer token and returns the authenticated
// user id.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (int, error) {
	resp, err := a.client.ValidateToken(ctx, &authpb.ValidateTokenRequest{Token: token})
	if err != nil {
		return 0, err
	}
	if !resp.GetValid() || resp.GetUserId() == 0 {
		return 0, errors.New("invalid token")
	}
	return int(resp.GetUserId()), nil
}
