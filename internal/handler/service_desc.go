package handler

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "myqa.marketplace.v1.MarketplaceService"

// MarketplaceServer is the server API for the marketplace service.
type MarketplaceServer interface {
	Initialize(context.Context, *InitializeRequest) (*MarketplaceResponse, error)
	GetMarketplace(context.Context, *Empty) (*MarketplaceResponse, error)
	UpdateFees(context.Context, *UpdateFeesRequest) (*MarketplaceResponse, error)
	UpdateTreasury(context.Context, *UpdateTreasuryRequest) (*MarketplaceResponse, error)
	ToggleMarketplace(context.Context, *Empty) (*MarketplaceResponse, error)
	ToggleOperation(context.Context, *ToggleOperationRequest) (*MarketplaceResponse, error)
	TransferAuthority(context.Context, *TransferAuthorityRequest) (*MarketplaceResponse, error)
	BlacklistUser(context.Context, *IdentityRequest) (*UserStateResponse, error)
	UnblacklistUser(context.Context, *IdentityRequest) (*UserStateResponse, error)
	DeactivateQuestion(context.Context, *QuestionRequest) (*QuestionResponse, error)
	InitializeUserState(context.Context, *Empty) (*UserStateResponse, error)
	GetUserState(context.Context, *IdentityRequest) (*UserStateResponse, error)
	CreateQuestion(context.Context, *CreateQuestionRequest) (*QuestionResponse, error)
	GetQuestion(context.Context, *QuestionRequest) (*QuestionResponse, error)
	ListQuestionsByCreator(context.Context, *ListByCreatorRequest) (*QuestionsResponse, error)
	ListQuestionEvents(context.Context, *ListQuestionEventsRequest) (*EventsResponse, error)
	MintKey(context.Context, *MintKeyRequest) (*UnlockKeyResponse, error)
	ListKey(context.Context, *PriceKeyRequest) (*UnlockKeyResponse, error)
	UpdateListing(context.Context, *PriceKeyRequest) (*UnlockKeyResponse, error)
	CancelListing(context.Context, *KeyRequest) (*UnlockKeyResponse, error)
	BuyListedKey(context.Context, *BuyListedKeyRequest) (*UnlockKeyResponse, error)
	GetUnlockKey(context.Context, *KeyRequest) (*UnlockKeyResponse, error)
	ListKeysByOwner(context.Context, *ListKeysByOwnerRequest) (*UnlockKeysResponse, error)
}

var _ MarketplaceServer = (*MarketplaceHandler)(nil)

// RegisterMarketplaceServer registers srv on the gRPC server.
func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&MarketplaceServiceDesc, srv)
}

func methodPath(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts a typed server method into a grpc.MethodDesc handler.
func unary[Req any, Resp any](name string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(MarketplaceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: methodPath(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// MarketplaceServiceDesc describes the marketplace service for grpc.Server.
var MarketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Initialize", MarketplaceServer.Initialize),
		unary("GetMarketplace", MarketplaceServer.GetMarketplace),
		unary("UpdateFees", MarketplaceServer.UpdateFees),
		unary("UpdateTreasury", MarketplaceServer.UpdateTreasury),
		unary("ToggleMarketplace", MarketplaceServer.ToggleMarketplace),
		unary("ToggleOperation", MarketplaceServer.ToggleOperation),
		unary("TransferAuthority", MarketplaceServer.TransferAuthority),
		unary("BlacklistUser", MarketplaceServer.BlacklistUser),
		unary("UnblacklistUser", MarketplaceServer.UnblacklistUser),
		unary("DeactivateQuestion", MarketplaceServer.DeactivateQuestion),
		unary("InitializeUserState", MarketplaceServer.InitializeUserState),
		unary("GetUserState", MarketplaceServer.GetUserState),
		unary("CreateQuestion", MarketplaceServer.CreateQuestion),
		unary("GetQuestion", MarketplaceServer.GetQuestion),
		unary("ListQuestionsByCreator", MarketplaceServer.ListQuestionsByCreator),
		unary("ListQuestionEvents", MarketplaceServer.ListQuestionEvents),
		unary("MintKey", MarketplaceServer.MintKey),
		unary("ListKey", MarketplaceServer.ListKey),
		unary("UpdateListing", MarketplaceServer.UpdateListing),
		unary("CancelListing", MarketplaceServer.CancelListing),
		unary("BuyListedKey", MarketplaceServer.BuyListedKey),
		unary("GetUnlockKey", MarketplaceServer.GetUnlockKey),
		unary("ListKeysByOwner", MarketplaceServer.ListKeysByOwner),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "myqa/marketplace/v1/marketplace.proto",
}
