package app

import (
	"github.com/juney329/mancat-v2/internal/markers"
	"github.com/juney329/mancat-v2/internal/query"
	"github.com/juney329/mancat-v2/internal/store"
)

// newService opens the configured dataset and wraps it in a query service.
// The returned dataset owns the open band handles and must be closed.
func newService(config *Config) (*query.Service, *store.Dataset) {
	var opts []store.DatasetOption
	if config.Store.MaxOpenBands > 0 {
		opts = append(opts, store.WithMaxOpenBands(config.Store.MaxOpenBands))
	}
	ds := store.NewDataset(config.Store.DataDir, opts...)
	mk := markers.NewStore(config.Store.DataDir)
	return query.NewService(ds, mk, config.Query.Limits()), ds
}
