package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fulldump/overlaydb/collection"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var (
	ErrCollectionAlreadyExists = errors.New("collection already exists")
	ErrCollectionNotFound      = errors.New("collection not found")
	ErrCollectionName          = errors.New("bad collection name")
)

type Config struct {
	Dir    string
	Logger *slog.Logger
}

type Database struct {
	config      *Config
	logger      *slog.Logger
	status      string
	statusMutex sync.RWMutex
	collections map[string]*collection.Collection
	mutex       sync.RWMutex
	exit        chan struct{}
}

func NewDatabase(config *Config) *Database {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Database{
		config:      config,
		logger:      logger,
		status:      StatusOpening,
		collections: map[string]*collection.Collection{},
		exit:        make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.statusMutex.RLock()
	defer db.statusMutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.statusMutex.Lock()
	db.status = status
	db.statusMutex.Unlock()
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\:`) || name == "." || name == ".." {
		return fmt.Errorf("%w '%s'", ErrCollectionName, name)
	}
	return nil
}

func (db *Database) CreateCollection(name string) (*collection.Collection, error) {

	if err := validName(name); err != nil {
		return nil, err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, exists := db.collections[name]; exists {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionAlreadyExists, name)
	}

	filename := filepath.Join(db.config.Dir, name)
	col, err := collection.OpenCollection(filename)
	if err != nil {
		return nil, err
	}

	db.collections[name] = col

	return col, nil
}

func (db *Database) GetCollection(name string) (*collection.Collection, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	col, exists := db.collections[name]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, name)
	}
	return col, nil
}

func (db *Database) ListCollections() map[string]*collection.Collection {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := make(map[string]*collection.Collection, len(db.collections))
	for name, col := range db.collections {
		result[name] = col
	}
	return result
}

func (db *Database) DropCollection(name string) error {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	col, exists := db.collections[name]
	if !exists {
		return fmt.Errorf("%w: '%s'", ErrCollectionNotFound, name)
	}

	err := col.Drop()
	if err != nil {
		return fmt.Errorf("drop '%s': %w", name, err)
	}

	delete(db.collections, name)

	return nil
}

func (db *Database) Load() error {

	dir := db.config.Dir
	db.logger.Info("loading database", "dir", dir)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name, err := filepath.Rel(dir, filename)
		if err != nil {
			return err
		}

		t0 := time.Now()
		col, err := collection.OpenCollection(filename)
		if err != nil {
			db.logger.Error("open collection", "collection", name, "error", err)
			return err
		}
		db.logger.Info("collection loaded", "collection", name, "rows", col.Len(), "elapsed", time.Since(t0))

		db.collections[name] = col

		return nil
	})

	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.setStatus(StatusOperating)

	return nil
}

// Start loads the database and blocks until Stop is called
func (db *Database) Start() error {

	go func() {
		err := db.Load()
		if err != nil {
			db.logger.Error("load database", "error", err)
		}
	}()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.setStatus(StatusClosing)

	db.mutex.Lock()
	defer db.mutex.Unlock()

	var errs []error
	for name, col := range db.collections {
		db.logger.Info("closing collection", "collection", name)
		err := col.Close()
		if err != nil {
			db.logger.Error("close collection", "collection", name, "error", err)
			errs = append(errs, fmt.Errorf("close '%s': %w", name, err))
		}
	}

	return errors.Join(errs...)
}
