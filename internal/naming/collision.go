package naming

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// ClaimRegistry tracks destinations claimed by source files during one run.
// The first claimant owns a destination; later claimants are refused rather
// than renamed, so a destination is never written twice in a run. All
// methods are goroutine-safe.
type ClaimRegistry struct {
	mu       sync.Mutex
	owners   map[string]string // normalized destination → source that owns it
	foldCase bool
}

// NewClaimRegistry creates a registry. Destinations differing only in case
// collide on platforms whose default filesystems are case-insensitive.
func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{
		owners:   make(map[string]string),
		foldCase: runtime.GOOS == "darwin" || runtime.GOOS == "windows",
	}
}

// Claim records source as the owner of dest. It returns ok when dest was
// free or already owned by source; otherwise it returns the current owner.
func (r *ClaimRegistry) Claim(source, dest string) (owner string, ok bool) {
	key := filepath.Clean(dest)
	if r.foldCase {
		key = strings.ToLower(key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.owners[key]; exists && prev != source {
		return prev, false
	}
	r.owners[key] = source
	return source, true
}

// Len returns the number of claimed destinations.
func (r *ClaimRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
