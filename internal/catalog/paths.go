package catalog

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// Kind selects one artifact container type.
type Kind int

const (
	KindFootprints Kind = iota
	KindSymbols
	KindLegacySymbols
	KindModels
)

// DefaultPartsDir is the catalog root relative to the project.
const DefaultPartsDir = "parts"

// LegacyPrefix marks legacy-shadow library nicknames and file names.
const LegacyPrefix = "LEGACY"

const (
	FootprintExt    = ".kicad_mod"
	SymbolLibExt    = ".kicad_sym"
	LegacyLibExt    = ".lib"
	footprintLibExt = ".pretty"
	modelLibExt     = ".3dshapes"
	legacySeparator = "_"
)

func (k Kind) String() string {
	switch k {
	case KindFootprints:
		return "footprints"
	case KindSymbols:
		return "symbols"
	case KindLegacySymbols:
		return "legacy symbols"
	case KindModels:
		return "3D models"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Location is a container path relative to the project root, using forward
// slashes. IsFile distinguishes single-file containers from directories.
type Location struct {
	Path   string
	IsFile bool
}

// Layout resolves container locations below a parts root.
type Layout struct {
	PartsDir string
	Group    string
}

// NewLayout returns a layout for group rooted at partsDir. An empty partsDir
// selects DefaultPartsDir.
func NewLayout(partsDir, group string) Layout {
	if strings.TrimSpace(partsDir) == "" {
		partsDir = DefaultPartsDir
	}
	return Layout{PartsDir: partsDir, Group: group}
}

// Resolve computes the container for kind. part is only consulted for models.
func (l Layout) Resolve(category, part string, kind Kind) (Location, error) {
	if strings.TrimSpace(l.Group) == "" {
		return Location{}, fmt.Errorf("resolve %s: group is empty", kind)
	}
	if strings.TrimSpace(category) == "" {
		return Location{}, fmt.Errorf("resolve %s: category is empty", kind)
	}
	root := path.Join(l.PartsDir, l.Group)
	switch kind {
	case KindFootprints:
		return Location{Path: path.Join(root, "footprints", category+footprintLibExt)}, nil
	case KindSymbols:
		return Location{Path: path.Join(root, "symbols", category+SymbolLibExt), IsFile: true}, nil
	case KindLegacySymbols:
		return Location{Path: path.Join(root, "symbols", LegacyPrefix+legacySeparator+category+LegacyLibExt), IsFile: true}, nil
	case KindModels:
		if strings.TrimSpace(part) == "" {
			return Location{}, fmt.Errorf("resolve %s: part is empty", kind)
		}
		return Location{Path: path.Join(root, "3dmodels", category+modelLibExt, part)}, nil
	default:
		return Location{}, fmt.Errorf("resolve: unknown container kind %d", int(kind))
	}
}

// Resolve computes the container for kind using the default parts root.
func Resolve(group, category, part string, kind Kind) (Location, error) {
	return NewLayout(DefaultPartsDir, group).Resolve(category, part, kind)
}

// FootprintFile is the path of one part's footprint inside its category
// footprint library.
func (l Layout) FootprintFile(category, part string) (string, error) {
	loc, err := l.Resolve(category, part, KindFootprints)
	if err != nil {
		return "", err
	}
	return path.Join(loc.Path, part+FootprintExt), nil
}

// Nickname is the library-table name of the plain footprint and symbol
// libraries for a category.
func (l Layout) Nickname(category string) string {
	return Nickname(l.Group, category)
}

// LegacyNickname is the library-table name of a category's legacy-shadow
// symbol library.
func (l Layout) LegacyNickname(category string) string {
	return LegacyNickname(l.Group, category)
}

// Nickname returns {group}_{category}.
func Nickname(group, category string) string {
	return group + "_" + category
}

// LegacyNickname returns LEGACY_{group}_{category}.
func LegacyNickname(group, category string) string {
	return LegacyPrefix + legacySeparator + Nickname(group, category)
}

// IsLegacyNickname reports whether name carries the legacy-shadow prefix.
func IsLegacyNickname(name string) bool {
	return strings.HasPrefix(name, LegacyPrefix)
}

// StripLegacyPrefix removes the legacy prefix and its separator from name.
func StripLegacyPrefix(name string) string {
	return strings.TrimPrefix(strings.TrimPrefix(name, LegacyPrefix), legacySeparator)
}

// SanitizeCategory drops every rune other than ASCII letters, ASCII digits,
// hyphens and whitespace, then maps each remaining hyphen or whitespace rune
// to its own underscore. Runs are not collapsed, so "A - B" becomes "A___B".
func SanitizeCategory(category string) string {
	var b strings.Builder
	b.Grow(len(category))
	for _, r := range category {
		switch {
		case r == '-' || unicode.IsSpace(r):
			b.WriteByte('_')
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
