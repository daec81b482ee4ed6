package database

// MetadataRepository persists enrichment lookups keyed by normalized title.
type MetadataRepository interface {
	// Get returns nil without error when the key has never been resolved.
	Get(normalizedKey string) (*MovieMetadata, error)
	Upsert(metadata MovieMetadata) error
	Invalidate(normalizedKey string) error
	Clear() error
}
