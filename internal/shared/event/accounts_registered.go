package event

import "time"

const AccountsRegisteredDestination string = "accounts_registered"

// AccountsRegisteredMessage announces names added to the registry. Secrets are
// never part of the payload.
type AccountsRegisteredMessage struct {
	EventID      string    `json:"event_id"`
	Source       string    `json:"source"`
	Accounts     []string  `json:"accounts"`
	Skipped      int       `json:"skipped"`
	RegisteredAt time.Time `json:"registered_at"`
}
