package service

import (
	"errors"

	"github.com/fulldump/overlaydb/collection"
)

var ErrorCursorNotFound = errors.New("cursor not found")

type Servicer interface {
	CreateCollection(name string) (*collection.Collection, error)
	GetCollection(name string) (*collection.Collection, error)
	ListCollections() map[string]*collection.Collection
	DropCollection(name string) error
	RemoveDocuments(collectionName string, options *RemoveOptions) ([]*collection.Row, error)

	OpenCursor(collectionName string, options *CursorOptions) (*Session, error)
	GetCursor(id string) (*Session, error)
	ListCursors() []*Session
	CloseCursor(id string) error
}
