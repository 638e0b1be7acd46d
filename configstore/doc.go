// Package configstore implements durable, cached key-value configuration
// storage backed by plain files.
//
// Each configuration is a named document stored as JSON or YAML under a
// single directory. Reads go through a bounded LRU cache with a TTL;
// writes stamp a _metadata section and refresh the cache. Updates and
// deletes keep timestamped backup copies alongside the originals.
//
//	store, err := configstore.New(configstore.Config{Dir: "config"}, log)
//	path, err := store.Save(ctx, "database", map[string]any{"host": "localhost"}, configstore.FormatJSON)
//	data, err := store.Load(ctx, "database")
//
// The store is a collaborator of the coordination facade; the service
// registry does not depend on it.
package configstore
