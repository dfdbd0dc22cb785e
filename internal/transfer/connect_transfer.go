package transfer

import (
	"time"

	"github.com/parishpost/parishpost/internal/models"
)

// Credentials is what a platform connector yields from a successful code
// exchange, before anything is encrypted or stored.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Pages        []models.Page
}

type ConnectionStatus struct {
	Platform    models.Platform `json:"platform"`
	Status      string          `json:"status"` // connected | disconnected
	AccountName string          `json:"account_name"`
	ConnectedAt *time.Time      `json:"connected_at,omitempty"`
}

type OAuthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}
