package listener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"rolls/internal/config"
	"rolls/internal/connectors"
	"rolls/internal/pipeline"
	"rolls/internal/storage"
)

const lastFileKey = "watch.last_file"

type FileProcessor interface {
	ProcessFile(req pipeline.FileRequest) (pipeline.FileResult, error)
}

// MailFetcher drops roster mail into the inbox directory.
type MailFetcher interface {
	FetchToInbox(label string, max int) (connectors.FetchResult, error)
}

// Service watches the inbox directory and processes every roster file that
// lands there for its most recent date. Bursts of writes to one file are
// coalesced; the file is handled once it has been quiet for the debounce.
type Service struct {
	db       *storage.DB
	cfg      config.Config
	proc     FileProcessor
	log      *zap.Logger
	debounce time.Duration
	pending  map[string]time.Time

	fetcher       MailFetcher
	fetchInterval time.Duration
}

func NewService(db *storage.DB, cfg config.Config, proc FileProcessor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	debounce := time.Duration(cfg.WatchDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 750 * time.Millisecond
	}
	return &Service{
		db:       db,
		cfg:      cfg,
		proc:     proc,
		log:      log,
		debounce: debounce,
		pending:  map[string]time.Time{},
	}
}

// EnableMailFetch makes Run poll the mailbox through f on start and every
// interval. Fetched messages reach the roll pipeline through the inbox.
func (s *Service) EnableMailFetch(f MailFetcher, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.fetcher = f
	s.fetchInterval = interval
}

// Run blocks until ctx is cancelled. Files already in the inbox are picked up
// on start.
func (s *Service) Run(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.InboxDir) == "" {
		return errors.New("inbox directory not configured")
	}
	if err := os.MkdirAll(s.cfg.InboxDir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.cfg.InboxDir); err != nil {
		return err
	}
	s.log.Info("watching inbox", zap.String("dir", s.cfg.InboxDir), zap.Duration("debounce", s.debounce))
	s.logLastFile()
	s.enqueueExisting()

	var fetchC <-chan time.Time
	if s.fetcher != nil {
		s.fetchMail()
		fetchTicker := time.NewTicker(s.fetchInterval)
		defer fetchTicker.Stop()
		fetchC = fetchTicker.C
	}

	tick := s.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			s.flush()
		case <-fetchC:
			s.fetchMail()
		}
	}
}

func (s *Service) fetchMail() {
	res, err := s.fetcher.FetchToInbox(s.cfg.MailLabel, s.cfg.MailFetchMax)
	if err != nil {
		s.log.Warn("mail fetch failed", zap.Error(err))
		return
	}
	if res.Stored > 0 {
		s.log.Info("roster mail stored", zap.Int("stored", res.Stored), zap.Int("fetched", res.Fetched))
	}
}

func (s *Service) logLastFile() {
	if s.db == nil {
		return
	}
	last, err := s.db.GetMetadata(lastFileKey)
	if err != nil {
		s.log.Warn("read watcher state", zap.Error(err))
		return
	}
	if last != nil {
		s.log.Info("resuming watch", zap.String("lastFile", *last))
	}
}

func (s *Service) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !Accepts(event.Name) {
		return
	}
	s.log.Debug("inbox event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	s.pending[event.Name] = time.Now()
}

func (s *Service) enqueueExisting() {
	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		s.log.Warn("read inbox", zap.Error(err))
		return
	}
	now := time.Now()
	for _, e := range entries {
		if e.IsDir() || !Accepts(e.Name()) {
			continue
		}
		s.pending[filepath.Join(s.cfg.InboxDir, e.Name())] = now
	}
}

func (s *Service) flush() {
	now := time.Now()
	for path, seen := range s.pending {
		if now.Sub(seen) < s.debounce {
			continue
		}
		delete(s.pending, path)
		s.handleFile(path)
	}
}

func (s *Service) handleFile(path string) {
	if _, err := os.Stat(path); err != nil {
		s.log.Debug("inbox file gone", zap.String("path", path))
		return
	}

	res, err := s.proc.ProcessFile(pipeline.FileRequest{Path: path})
	if err != nil {
		s.log.Warn("roll not processed", zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Info("inbox roll exported",
		zap.String("path", path),
		zap.String("date", res.Day),
		zap.Int("total", res.Result.Stats.TotalCount),
		zap.String("csv", res.CSVPath),
	)

	if s.db != nil {
		if err := s.db.SetMetadata(lastFileKey, filepath.Base(path)); err != nil {
			s.log.Warn("store watcher state", zap.Error(err))
		}
	}

	if dir := strings.TrimSpace(s.cfg.WatchProcessedDir); dir != "" {
		if err := moveFile(path, dir); err != nil {
			s.log.Warn("move processed roll", zap.String("path", path), zap.Error(err))
		}
	}
}

// Accepts reports whether name looks like a roster export. Office lock files
// and hidden files are ignored.
func Accepts(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".csv", ".html", ".htm", ".eml":
		return true
	default:
		return false
	}
}

func moveFile(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}
