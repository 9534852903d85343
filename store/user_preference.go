package store

// UserPreference stores a learned user preference. Upsert semantics keyed
// by Key.
type UserPreference struct {
	Key       string
	Value     string
	UpdatedTs int64
}
