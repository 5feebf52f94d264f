package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// KeyTypeOutcome labels outcome entries in cache metrics.
const KeyTypeOutcome = "outcome"

// Keyer derives cache keys.
type Keyer interface {
	// OutcomeKey identifies the resolution of root under opts.
	OutcomeKey(root string, opts OutcomeKeyOpts) string
}

// OutcomeKeyOpts holds everything besides the root that changes a
// resolution result.
type OutcomeKeyOpts struct {
	SkipInner bool `json:"skip_inner"`
	// Repositories lists "name=url" for every configured repository, in
	// search order.
	Repositories []string `json:"repositories"`
}

// DefaultKeyer produces keys of the form "outcome:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// OutcomeKey hashes root together with opts.
func (DefaultKeyer) OutcomeKey(root string, opts OutcomeKeyOpts) string {
	return hashKey(KeyTypeOutcome, root, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer, giving each scope its
// own namespace in a shared backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) OutcomeKey(root string, opts OutcomeKeyOpts) string {
	return k.prefix + k.inner.OutcomeKey(root, opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
