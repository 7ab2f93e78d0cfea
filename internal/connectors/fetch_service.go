package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rolls/internal"
	"rolls/internal/ingest"
	"rolls/internal/storage"
)

const (
	mailStored   = "stored"
	mailNoRoster = "no_roster"
)

// FetchService moves roster mail from a mailbox into the inbox directory,
// where the watcher picks it up like any other export. Every message is
// remembered in the database so it is fetched at most once.
type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStore
	log       *zap.Logger
}

type FetchResult struct {
	Fetched  int
	Stored   int
	Known    int
	NoRoster int
}

func NewFetchService(db *storage.DB, inboxDir string, connector MailConnector, log *zap.Logger) *FetchService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStore(inboxDir),
		log:       log,
	}
}

func (s *FetchService) FetchToInbox(label string, max int) (FetchResult, error) {
	if s.db == nil {
		return FetchResult{}, errors.New("mail fetch needs the database")
	}
	if max <= 0 {
		max = 20
	}

	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, fmt.Errorf("fetch %s: %w", label, err)
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		known, err := s.db.HasMail(msg.Provider, msg.MessageID)
		if err != nil {
			return res, err
		}
		if known {
			res.Known++
			continue
		}

		row := storage.MailRow{
			Provider:   msg.Provider,
			MessageID:  msg.MessageID,
			Subject:    msg.Subject,
			From:       msg.From,
			ReceivedAt: msg.ReceivedAt,
		}
		if hasRoster(msg) {
			row.Path, row.SHA256, err = s.store.Store(msg.Raw)
			if err != nil {
				return res, err
			}
			row.Status = mailStored
			res.Stored++
		} else {
			sum := sha256.Sum256(msg.Raw)
			row.SHA256 = hex.EncodeToString(sum[:])
			row.Status = mailNoRoster
			res.NoRoster++
		}
		if _, err := s.db.RecordMail(row); err != nil {
			return res, err
		}
		s.log.Debug("mail fetched",
			zap.String("provider", msg.Provider),
			zap.String("messageId", msg.MessageID),
			zap.String("subject", msg.Subject),
			zap.String("status", row.Status),
		)
	}

	s.log.Info("mail fetch done",
		zap.String("label", label),
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
		zap.Int("known", res.Known),
		zap.Int("noRoster", res.NoRoster),
	)
	return res, nil
}

func hasRoster(msg internal.FetchedMessage) bool {
	_, err := ingest.Read("message.eml", msg.Raw)
	return err == nil
}
