package database

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/config"
	"github.com/Rana718/mfgseed/internal/database/common"
	"github.com/Rana718/mfgseed/internal/database/mongodb"
	"github.com/Rana718/mfgseed/internal/database/mysql"
	"github.com/Rana718/mfgseed/internal/database/postgres"
	"github.com/Rana718/mfgseed/internal/database/relational"
	"github.com/Rana718/mfgseed/internal/database/sqlite"
)

func NewDialect(provider string) (common.Dialect, error) {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(), nil
	case "mysql":
		return mysql.New(), nil
	case "sqlite", "sqlite3":
		return sqlite.New(), nil
	}
	return nil, fmt.Errorf("unsupported relational provider: %s", provider)
}

func NewRelationalStore(name string, cfg config.Store, opts relational.Options) (RelationalStore, error) {
	dialect, err := NewDialect(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return relational.New(name, cfg, dialect, opts), nil
}

func NewDocumentStore(name string, cfg config.Store, opts mongodb.Options) (DocumentStore, error) {
	switch cfg.Provider {
	case "mongodb", "mongo":
		return mongodb.New(name, cfg, opts), nil
	}
	return nil, fmt.Errorf("unsupported document provider: %s", cfg.Provider)
}

// Stores bundles the three stores of one run. None of them is connected yet.
type Stores struct {
	Master     RelationalStore
	Operations RelationalStore
	Documents  DocumentStore
}

func Open(cfg *config.Config) (*Stores, error) {
	ropts := relational.Options{ConnectTimeout: cfg.ConnectTimeout, CallTimeout: cfg.CallTimeout}
	master, err := NewRelationalStore("master", cfg.Stores.Master, ropts)
	if err != nil {
		return nil, err
	}
	operations, err := NewRelationalStore("operations", cfg.Stores.Operations, ropts)
	if err != nil {
		return nil, err
	}
	documents, err := NewDocumentStore("documents", cfg.Stores.Documents,
		mongodb.Options{ConnectTimeout: cfg.ConnectTimeout, CallTimeout: cfg.CallTimeout})
	if err != nil {
		return nil, err
	}
	return &Stores{Master: master, Operations: operations, Documents: documents}, nil
}

func (s *Stores) Close() {
	for _, st := range []Store{s.Master, s.Operations, s.Documents} {
		if st != nil {
			st.Close()
		}
	}
}
