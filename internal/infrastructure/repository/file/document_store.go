package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
)

// DocumentStore keeps the document as one JSON file. Writes go to a temp file
// in the same directory and are renamed over the target.
type DocumentStore struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	logger   *logging.Logger
	now      func() time.Time
}

// NewDocumentStore builds a file store at path. maxBytes > 0 rejects encoded
// documents larger than the budget with datastore.ErrQuotaExceeded.
func NewDocumentStore(path string, maxBytes int64, logger *logging.Logger) *DocumentStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &DocumentStore{
		path:     path,
		maxBytes: maxBytes,
		logger:   logger.Named("file_store"),
		now:      time.Now,
	}
}

func (s *DocumentStore) Path() string {
	return s.path
}

// Load returns an empty document when the file is missing. A file that cannot
// be decoded is moved aside and an empty document is returned.
func (s *DocumentStore) Load(ctx context.Context) (datastore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return datastore.Empty(), nil
		}
		return datastore.Document{}, crerr.Wrapf(err, "read data file %s", s.path)
	}
	if len(raw) == 0 {
		return datastore.Empty(), nil
	}

	var doc datastore.Document
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
		if renameErr := os.Rename(s.path, aside); renameErr != nil {
			return datastore.Document{}, crerr.Wrapf(renameErr, "move corrupt data file %s aside", s.path)
		}
		s.logger.WarnContext(ctx, "data file was corrupt, starting empty", "path", s.path, "moved_to", aside, "error", err)
		return datastore.Empty(), nil
	}
	return doc.Normalize(), nil
}

func (s *DocumentStore) Save(ctx context.Context, doc datastore.Document) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(doc.Normalize()); err != nil {
		return crerr.Wrap(err, "encode document")
	}
	if s.maxBytes > 0 && int64(buf.Len()) > s.maxBytes {
		return crerr.Wrapf(datastore.ErrQuotaExceeded, "document is %d bytes, limit %d", buf.Len(), s.maxBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return crerr.Wrapf(err, "create data dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return crerr.Wrap(err, "create temp data file")
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf.B); err != nil {
		_ = tmp.Close()
		return crerr.Wrap(err, "write temp data file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return crerr.Wrap(err, "sync temp data file")
	}
	if err := tmp.Close(); err != nil {
		return crerr.Wrap(err, "close temp data file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return crerr.Wrapf(err, "replace data file %s", s.path)
	}

	s.logger.DebugContext(ctx, "document saved", "bytes", buf.Len(),
		"football", len(doc.FootballMatches), "ufc", len(doc.UFCEvents))
	return nil
}
