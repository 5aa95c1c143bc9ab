package usecase

import "context"

type ListAccountsOutput struct {
	Accounts []string
}

// ListAccounts returns the registered names in ascending order. No secret
// leaves the registry here.
func (s *Usecase) ListAccounts(ctx context.Context) (*ListAccountsOutput, error) {
	_, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	names := s.registry.Names()
	if names == nil {
		names = []string{}
	}

	return &ListAccountsOutput{Accounts: names}, nil
}
