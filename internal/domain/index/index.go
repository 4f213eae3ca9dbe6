// Package index describes physical indices: their schema and generated names.
package index

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Schema holds the settings and mappings used when creating an index.
// The maps are treated as read-only once handed to a dataset.
type Schema struct {
	Settings map[string]any
	Mappings map[string]any
}

// IsEmpty reports whether neither settings nor mappings are present.
func (s Schema) IsEmpty() bool {
	return len(s.Settings) == 0 && len(s.Mappings) == 0
}

// Body returns the create-index request body. Empty parts are omitted.
func (s Schema) Body() map[string]any {
	body := make(map[string]any, 2)
	if len(s.Settings) > 0 {
		body["settings"] = s.Settings
	}
	if len(s.Mappings) > 0 {
		body["mappings"] = s.Mappings
	}
	return body
}

// StampDigits is the fixed width of the timestamp suffix of physical names.
const StampDigits = 18

// ErrInvalidName signals an index or alias name the engine would reject.
var ErrInvalidName = errors.New("invalid index name")

// ValidateName checks the engine's naming rules: non-empty, lowercase,
// no path or wildcard characters, not starting with '-', '_' or '+'.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ToLower(name) != name {
		return fmt.Errorf("%w: %q must be lowercase", ErrInvalidName, name)
	}
	switch name[0] {
	case '-', '_', '+':
		return fmt.Errorf("%w: %q must not start with %q", ErrInvalidName, name, name[0])
	}
	if strings.ContainsAny(name, `\/*?"<>| ,#`) {
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidName, name)
	}
	return nil
}

// Namer generates physical index names of the form "<alias>-<stamp>", where
// stamp is the current time in microseconds, zero-padded to StampDigits.
// Stamps are strictly increasing within one Namer.
type Namer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNamer creates a Namer reading the wall clock.
func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// Next returns a fresh physical name for alias.
func (n *Namer) Next(alias string) string {
	n.mu.Lock()
	stamp := n.now().UnixMicro()
	if stamp <= n.last {
		stamp = n.last + 1
	}
	n.last = stamp
	n.mu.Unlock()

	return fmt.Sprintf("%s-%0*d", alias, StampDigits, stamp)
}

// PhysicalPattern returns a regexp matching physical names generated for alias.
func PhysicalPattern(alias string) *regexp.Regexp {
	return regexp.MustCompile(`\A` + regexp.QuoteMeta(alias) + `-\d{` + fmt.Sprint(StampDigits) + `}\z`)
}
