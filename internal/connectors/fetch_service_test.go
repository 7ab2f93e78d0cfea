package connectors

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolls/internal"
	"rolls/internal/config"
	"rolls/internal/storage"
)

const rosterMail = "From: clerk@example.com\r\n" +
	"Subject: Parade roll\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<table><tr><th>Completion time</th><th>Staff</th></tr><tr><td>2025-03-04</td><td>SGT Smith</td></tr></table>\r\n"

const chatterMail = "From: cdt@example.com\r\n" +
	"Subject: running late\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Be there at 1900.\r\n"

type fakeConnector struct {
	messages []internal.FetchedMessage
	err      error
	calls    int
	gotLabel string
	gotMax   int
}

func (f *fakeConnector) FetchInbox(label string, max int) ([]internal.FetchedMessage, error) {
	f.calls++
	f.gotLabel, f.gotMax = label, max
	return f.messages, f.err
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "rolls.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFetchToInbox(t *testing.T) {
	db := openDB(t)
	inbox := filepath.Join(t.TempDir(), "inbox")
	conn := &fakeConnector{messages: []internal.FetchedMessage{
		{Provider: "imap", MessageID: "<roll@x>", Subject: "Parade roll", Raw: []byte(rosterMail)},
		{Provider: "imap", MessageID: "<late@x>", Subject: "running late", Raw: []byte(chatterMail)},
	}}
	svc := NewFetchService(db, inbox, conn, nil)

	res, err := svc.FetchToInbox("INBOX", 0)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 1, NoRoster: 1}, res)
	assert.Equal(t, "INBOX", conn.gotLabel)
	assert.Equal(t, 20, conn.gotMax)

	entries, err := os.ReadDir(inbox)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.Equal(t, ".eml", filepath.Ext(name))
	assert.Len(t, name, 64+len(".eml"))

	content, err := os.ReadFile(filepath.Join(inbox, name))
	require.NoError(t, err)
	assert.Equal(t, rosterMail, string(content))

	rows, err := db.ListMail(0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, mailNoRoster, rows[0].Status)
	assert.Equal(t, mailStored, rows[1].Status)
	assert.Equal(t, filepath.Join(inbox, name), rows[1].Path)

	// The same mailbox state a minute later yields nothing new, even after the
	// watcher has moved the stored file away.
	require.NoError(t, os.Remove(filepath.Join(inbox, name)))
	res, err = svc.FetchToInbox("INBOX", 5)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Known: 2}, res)
	entries, err = os.ReadDir(inbox)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchToInboxErrors(t *testing.T) {
	inbox := t.TempDir()

	_, err := NewFetchService(nil, inbox, &fakeConnector{}, nil).FetchToInbox("INBOX", 1)
	assert.Error(t, err)

	boom := errors.New("connection refused")
	_, err = NewFetchService(openDB(t), inbox, &fakeConnector{err: boom}, nil).FetchToInbox("INBOX", 1)
	assert.ErrorIs(t, err, boom)
}

func TestMailStoreSameContentOnce(t *testing.T) {
	dir := t.TempDir()
	store := NewMailStore(dir)

	p1, h1, err := store.Store([]byte(rosterMail))
	require.NoError(t, err)
	p2, h2, err := store.Store([]byte(rosterMail))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, h1, h2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewConnector(t *testing.T) {
	_, err := New(config.Config{}, "")
	assert.ErrorContains(t, err, "ROLLS_MAIL_PROVIDER")

	_, err = New(config.Config{}, "pop3")
	assert.ErrorContains(t, err, "unsupported mail provider: pop3")

	_, err = New(config.Config{MailProvider: "imap"}, "")
	assert.ErrorContains(t, err, "IMAP_HOST")

	_, err = New(config.Config{IMAPHost: "mail.example.com", IMAPUser: "adj"}, "IMAP")
	assert.ErrorContains(t, err, "IMAP_PASSWORD")

	_, err = New(config.Config{GmailClientID: "id"}, "gmail")
	assert.ErrorContains(t, err, "GMAIL_CLIENT_SECRET")

	c, err := New(config.Config{IMAPHost: "mail.example.com", IMAPUser: "adj", IMAPPassword: "pw", IMAPPort: 993}, "imap")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
