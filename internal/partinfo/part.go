package partinfo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Version is a dot-separated integer version. Parsed versions always carry at
// least three components.
type Version []int

// String renders the version in dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether both versions carry the same components.
func (v Version) Equal(other Version) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if v[i] != other[i] {
			return false
		}
	}
	return true
}

// Part is one vendor component as described by its metadata file.
type Part struct {
	Manufacturer    string `validate:"required"`
	PartNumber      string `validate:"required"`
	PartCategory    string `validate:"required"`
	PackageCategory string
	PinCount        int       `validate:"min=0"`
	Version         Version   `validate:"min=3,dive,min=0"`
	Released        time.Time `validate:"required"`
	Downloaded      time.Time `validate:"required"`
	Has3DModel      bool
}

// VersionCopy returns a copy of the version so callers cannot mutate the part.
func (p Part) VersionCopy() Version {
	out := make(Version, len(p.Version))
	copy(out, p.Version)
	return out
}

// String identifies the part in log and error messages.
func (p Part) String() string {
	return fmt.Sprintf("%s %s (%s)", p.Manufacturer, p.PartNumber, p.PartCategory)
}
