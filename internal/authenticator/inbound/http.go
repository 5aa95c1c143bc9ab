package inbound

import (
	"context"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

type uc interface {
	RegisterImage(ctx context.Context, in usecase.RegisterImageInput) (*usecase.RegisterOutput, error)
	RegisterURI(ctx context.Context, in usecase.RegisterURIInput) (*usecase.RegisterOutput, error)
	ListAccounts(ctx context.Context) (*usecase.ListAccountsOutput, error)
	GetCode(ctx context.Context, in usecase.GetCodeInput) (*usecase.GetCodeOutput, error)
	ExportAccount(ctx context.Context, in usecase.ExportAccountInput) (*usecase.ExportAccountOutput, error)
}

// RegisterHTTPEndpoint mounts the authenticator routes. maxImageBytes caps the
// uploaded image size.
func RegisterHTTPEndpoint(r *router.Router, uc uc, maxImageBytes int64) {
	end := &HTTPEndpoint{uc: uc, maxImageBytes: maxImageBytes}

	// Registration
	r.POST("/api/v1/authenticator/accounts/scan", end.RegisterImage)
	r.POST("/api/v1/authenticator/accounts", end.RegisterURI)

	// Lookup
	r.GET("/api/v1/authenticator/accounts", end.ListAccounts)
	r.GET("/api/v1/authenticator/code", end.GetCode)
	r.GETRaw("/api/v1/authenticator/export", end.ExportAccount)
}
