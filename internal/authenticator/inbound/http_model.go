package inbound

import (
	"net/http"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/usecase"
)

type RegisterURIRequest struct {
	URI string `json:"uri"`
}

type RegisterResponse struct {
	Kind     string   `json:"kind"`
	Accounts []string `json:"accounts"`
	Skipped  int      `json:"skipped"`

	msg string
}

func newRegisterResponse(out *usecase.RegisterOutput) RegisterResponse {
	return RegisterResponse{
		Kind:     string(out.Kind),
		Accounts: out.Accounts,
		Skipped:  out.Skipped,
		msg:      out.Message,
	}
}

func (r RegisterResponse) Message() string { return r.msg }

func (RegisterResponse) StatusCode() int { return http.StatusCreated }

type ListAccountsResponse struct {
	Accounts []string `json:"accounts"`
}

func (r ListAccountsResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Accounts)}
}

type GetCodeResponse struct {
	Account   string `json:"account"`
	Code      string `json:"code"`
	ExpiresIn int    `json:"expires_in"`
}
