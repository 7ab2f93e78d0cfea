package connectors

import (
	"fmt"
	"strings"

	"rolls/internal"
	"rolls/internal/config"
	gmailconnector "rolls/internal/connectors/gmail"
	imapconnector "rolls/internal/connectors/imap"
)

// MailConnector pulls the newest messages of one mailbox label.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMessage, error)
}

// New builds the connector named by provider, or by ROLLS_MAIL_PROVIDER when
// provider is empty.
func New(cfg config.Config, provider string) (MailConnector, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = cfg.MailProvider
	}
	switch provider {
	case "imap":
		return imapconnector.NewConnector(cfg)
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "":
		return nil, fmt.Errorf("no mail provider configured (set ROLLS_MAIL_PROVIDER)")
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
