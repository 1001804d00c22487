// Package profile contains hand-maintained wire bindings for the profile
// collaborator service. The message layout mirrors the service's proto
// definition; field tags carry the wire schema.
package profile

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

type GetUserRequest struct {
	UserId int64 `protobuf:"varint,1,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
}

func (m *GetUserRequest) Reset()         { *m = GetUserRequest{} }
func (m *GetUserRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetUserRequest) ProtoMessage()    {}

func (m *GetUserRequest) GetUserId() int64 {
	if m != nil {
		return m.UserId
	}
	return 0
}

type GetUserResponse struct {
	Id        int64  `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Username  string `protobuf:"bytes,2,opt,name=username,proto3" json:"username,omitempty"`
	AvatarUrl string `protobuf:"bytes,3,opt,name=avatar_url,json=avatarUrl,proto3" json:"avatar_url,omitempty"`
}

func (m *GetUserResponse) Reset()         { *m = GetUserResponse{} }
func (m *GetUserResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*GetUserResponse) ProtoMessage()    {}

func (m *GetUserResponse) GetId() int64 {
	if m != nil {
		return m.Id
	}
	return 0
}

func (m *GetUserResponse) GetUsername() string {
	if m != nil {
		return m.Username
	}
	return ""
}

func (m *GetUserResponse) GetAvatarUrl() string {
	if m != nil {
		return m.AvatarUrl
	}
	return ""
}

type BulkUsersRequest struct {
	UserIds []int64 `protobuf:"varint,1,rep,packed,name=user_ids,json=userIds,proto3" json:"user_ids,omitempty"`
}

func (m *BulkUsersRequest) Reset()         { *m = BulkUsersRequest{} }
func (m *BulkUsersRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (*BulkUsersRequest) ProtoMessage()    {}

func (m *BulkUsersRequest) GetUserIds() []int64 {
	if m != nil {
		return m.UserIds
	}
	return nil
}

type BulkUsersResponse struct {
	Users []*GetUserResponse `protobuf:"bytes,1,rep,name=users,proto3" json:"users,omitempty"`
}

func (m *BulkUsersResponse) Reset()         { *m = BulkUsersResponse{} }
func (m *BulkUsersResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (*BulkUsersResponse) ProtoMessage()    {}

func (m *BulkUsersResponse) GetUsers() []*GetUserResponse {
	if m != nil {
		return m.Users
	}
	return nil
}

// ProfileServiceClient is the client API for the profile service.
type ProfileServiceClient interface {
	GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error)
	BulkUsers(ctx context.Context, in *BulkUsersRequest, opts ...grpc.CallOption) (*BulkUsersResponse, error)
}

type profileServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileServiceClient(cc grpc.ClientConnInterface) ProfileServiceClient {
	return &profileServiceClient{cc: cc}
}

func (c *profileServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	out := new(GetUserResponse)
	if err := c.cc.Invoke(ctx, "/profile.ProfileService/GetUser", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *profileServiceClient) BulkUsers(ctx context.Context, in *BulkUsersRequest, opts ...grpc.CallOption) (*BulkUsersResponse, error) {
	out := new(BulkUsersResponse)
	if err := c.cc.Invoke(ctx, "/profile.ProfileService/BulkUsers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
