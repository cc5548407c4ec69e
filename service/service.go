package service

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/overlaydb/collection"
	"github.com/fulldump/overlaydb/database"
	"github.com/fulldump/overlaydb/overlay"
)

type Service struct {
	db     *database.Database
	logger *slog.Logger

	cursorsMutex sync.Mutex
	cursors      map[string]*Session
}

func NewService(db *database.Database, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:      db,
		logger:  logger,
		cursors: map[string]*Session{},
	}
}

func (s *Service) CreateCollection(name string) (*collection.Collection, error) {
	return s.db.CreateCollection(name)
}

func (s *Service) GetCollection(name string) (*collection.Collection, error) {
	return s.db.GetCollection(name)
}

func (s *Service) ListCollections() map[string]*collection.Collection {
	return s.db.ListCollections()
}

// DropCollection also closes every cursor opened over the collection
func (s *Service) DropCollection(name string) error {

	err := s.db.DropCollection(name)
	if err != nil {
		return err
	}

	for _, session := range s.ListCursors() {
		if session.Collection == name {
			s.CloseCursor(session.Id)
		}
	}

	return nil
}

type RemoveOptions struct {
	Filter map[string]interface{} `json:"filter"` // connor expression, empty matches every document
	Limit  int64                  `json:"limit"`  // 0 means no limit
}

// RemoveDocuments deletes documents from a collection. Open cursors keep their
// rows until they are requeried.
func (s *Service) RemoveDocuments(collectionName string, options *RemoveOptions) ([]*collection.Row, error) {

	col, err := s.db.GetCollection(collectionName)
	if err != nil {
		return nil, err
	}

	removed, err := col.RemoveWhere(options.Filter, options.Limit)
	if err != nil {
		return removed, fmt.Errorf("remove: %w", err)
	}

	s.logger.Info("documents removed", "collection", collectionName, "removed", len(removed))

	return removed, nil
}

type CursorOptions struct {
	collection.Query `json:",inline"`
	KeyColumn        int  `json:"key_column"`
	KeyedByRow       bool `json:"keyed_by_row"`
}

// OpenCursor runs a query over a collection and keeps its result set open as
// an overlay cursor until CloseCursor is called
func (s *Service) OpenCursor(collectionName string, options *CursorOptions) (*Session, error) {

	col, err := s.db.GetCollection(collectionName)
	if err != nil {
		return nil, err
	}

	result, err := col.Find(&options.Query)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	id := uuid.New().String()
	logger := s.logger.With("cursor", id, "collection", collectionName)

	overlayOptions := []overlay.Option{overlay.WithLogger(logger)}
	if options.KeyedByRow {
		overlayOptions = append(overlayOptions, overlay.WithRowKeys())
	}

	c, err := overlay.New(result, options.KeyColumn, overlayOptions...)
	if err != nil {
		result.Close()
		return nil, err
	}

	session := &Session{
		Id:         id,
		Collection: collectionName,
		Created:    time.Now(),
		cursor:     c,
	}

	s.cursorsMutex.Lock()
	s.cursors[id] = session
	s.cursorsMutex.Unlock()

	logger.Info("cursor opened", "rows", c.Count(), "columns", c.ColumnCount())

	return session, nil
}

func (s *Service) GetCursor(id string) (*Session, error) {
	s.cursorsMutex.Lock()
	defer s.cursorsMutex.Unlock()

	session, exists := s.cursors[id]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrorCursorNotFound, id)
	}
	return session, nil
}

func (s *Service) ListCursors() []*Session {
	s.cursorsMutex.Lock()
	result := make([]*Session, 0, len(s.cursors))
	for _, session := range s.cursors {
		result = append(result, session)
	}
	s.cursorsMutex.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Created.Before(result[j].Created)
	})
	return result
}

func (s *Service) CloseCursor(id string) error {

	s.cursorsMutex.Lock()
	session, exists := s.cursors[id]
	delete(s.cursors, id)
	s.cursorsMutex.Unlock()

	if !exists {
		return fmt.Errorf("%w: '%s'", ErrorCursorNotFound, id)
	}

	s.logger.Info("cursor closed", "cursor", id)

	return session.close()
}
