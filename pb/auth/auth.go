// Package auth contains hand-maintained wire bindings for the auth
// collaborator service. The message layout mirrors the service's proto
// definition; field tags carry the wire schema.
package auth

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

type ValidateTokenRequest struct {
	Token string `protobuf:"bytes,1,opt,name=token,proto3" json:"token,omitempty"`
}

func (m *ValidateTokenRequest) Reset()         { *m = ValidateTokenRequest{} }
func (m *ValidateTokenRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*ValidateTokenRequest) ProtoMessage()    {}

func (m *ValidateTokenRequest) GetToken() string {
	if m != nil {
		return m.Token
	}
	return ""
}

type ValidateTokenResponse struct {
	Valid  bool  `protobuf:"varint,1,opt,name=valid,proto3" json:"valid,omitempty"`
	UserId int64 `protobuf:"varint,2,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
}

func (m *ValidateTokenResponse) Reset()         { *m = ValidateTokenResponse{} }
func (m *ValidateTokenResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*ValidateTokenResponse) ProtoMessage()    {}

func (m *ValidateTokenResponse) GetValid() bool {
	if m != nil {
		return m.Valid
	}
	return false
}

func (m *ValidateTokenResponse) GetUserId() int64 {
	if m != nil {
		return m.UserId
	}
	return 0
}

// AuthServiceClient is the client API for the auth service.
type AuthServiceClient interface {
	ValidateToken(ctx context.Context, in *ValidateTokenRequest, opts ...grpc.CallOption) (*ValidateTokenResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) ValidateToken(ctx context.Context, in *ValidateTokenRequest, opts ...grpc.CallOption) (*ValidateTokenResponse, error) {
	out := new(ValidateTokenResponse)
	if err := c.cc.Invoke(ctx, "/auth.AuthService/ValidateToken", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
