package inbound

import (
	"net/http"
	"strconv"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

// HTTPEndpoint exposes HTTP handlers for account registration and code lookup.
type HTTPEndpoint struct {
	uc            uc
	maxImageBytes int64
}

// RegisterImage registers the accounts found in the QR code of an uploaded image.
func (h *HTTPEndpoint) RegisterImage(r *router.Request) (any, error) {
	image, err := r.ReadSingleFile("image", h.maxImageBytes)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterImage(r.Context(), usecase.RegisterImageInput{
		Image:          image,
		IdempotencyKey: r.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	return newRegisterResponse(resp), nil
}

// RegisterURI registers the accounts of an otpauth or otpauth-migration URI.
func (h *HTTPEndpoint) RegisterURI(r *router.Request) (any, error) {
	var req RegisterURIRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterURI(r.Context(), usecase.RegisterURIInput{
		URI:            req.URI,
		IdempotencyKey: r.GetHeader(headerIdempotencyKey),
	})
	if err != nil {
		return nil, err
	}

	return newRegisterResponse(resp), nil
}

func (h *HTTPEndpoint) ListAccounts(r *router.Request) (any, error) {
	resp, err := h.uc.ListAccounts(r.Context())
	if err != nil {
		return nil, err
	}

	return ListAccountsResponse{Accounts: resp.Accounts}, nil
}

func (h *HTTPEndpoint) GetCode(r *router.Request) (any, error) {
	resp, err := h.uc.GetCode(r.Context(), usecase.GetCodeInput{
		Account: r.GetQuery("account"),
	})
	if err != nil {
		return nil, err
	}

	return GetCodeResponse{
		Account:   resp.Account,
		Code:      resp.Code,
		ExpiresIn: resp.ExpiresIn,
	}, nil
}

// ExportAccount writes the account's provisioning QR code as a PNG image.
func (h *HTTPEndpoint) ExportAccount(w http.ResponseWriter, r *router.Request) error {
	size, err := r.GetQueryInt("size", 0)
	if err != nil {
		return err
	}

	resp, err := h.uc.ExportAccount(r.Context(), usecase.ExportAccountInput{
		Account: r.GetQuery("account"),
		Size:    size,
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Image)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Image)

	return nil
}
