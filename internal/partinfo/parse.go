package partinfo

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"partcat/internal/faults"
)

// FileName is the sentinel base name of the metadata file in vendor archives.
const FileName = "part_info.txt"

const (
	modelFlagKey   = "3D"
	modelFieldName = "has_3d_model"
	versionDigits  = 3
)

// knownFields lists every normalized key the schema accepts.
var knownFields = []string{
	"manufacturer",
	"part_number",
	"part_category",
	"package_category",
	"pin_count",
	"version",
	"released",
	"downloaded",
	modelFieldName,
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Parse converts the raw text of a metadata file into a Part.
func Parse(text string) (Part, error) {
	fields, err := readFields(text)
	if err != nil {
		return Part{}, err
	}

	var part Part
	part.Manufacturer = fields["manufacturer"]
	part.PartNumber = fields["part_number"]
	part.PartCategory = fields["part_category"]
	part.PackageCategory = fields["package_category"]

	if part.PinCount, err = strconv.Atoi(fields["pin_count"]); err != nil {
		return Part{}, schemaError(part.PartNumber, "pin_count", fmt.Sprintf("invalid integer %q", fields["pin_count"]))
	}
	if part.Version, err = ParseVersion(fields["version"]); err != nil {
		return Part{}, faults.Wrap(faults.ErrSchema, scope(part.PartNumber), "parse metadata", "version", err)
	}
	if part.Released, err = ParseTimestamp(fields["released"]); err != nil {
		return Part{}, faults.Wrap(faults.ErrSchema, scope(part.PartNumber), "parse metadata", "released", err)
	}
	if part.Downloaded, err = ParseTimestamp(fields["downloaded"]); err != nil {
		return Part{}, faults.Wrap(faults.ErrSchema, scope(part.PartNumber), "parse metadata", "downloaded", err)
	}
	switch flag := fields[modelFieldName]; flag {
	case "Y":
		part.Has3DModel = true
	case "N":
		part.Has3DModel = false
	default:
		return Part{}, schemaError(part.PartNumber, modelFlagKey, fmt.Sprintf("unknown flag %q (want Y or N)", flag))
	}

	if err := structValidator().Struct(part); err != nil {
		return Part{}, faults.Wrap(faults.ErrSchema, scope(part.PartNumber), "validate metadata", describeValidation(err), nil)
	}
	return part, nil
}

func readFields(text string) (map[string]string, error) {
	fields := make(map[string]string, len(knownFields))
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, faults.Wrap(faults.ErrSchema, "", "parse metadata", fmt.Sprintf("line %d: expected key=value, got %q", lineNo, line), nil)
		}
		key = strings.TrimSpace(key)
		if key == modelFlagKey {
			key = modelFieldName
		} else {
			key = SnakeCase(key)
		}
		if !isKnownField(key) {
			return nil, faults.Wrap(faults.ErrSchema, "", "parse metadata", fmt.Sprintf("line %d: unexpected key %q", lineNo, key), nil)
		}
		if _, dup := fields[key]; dup {
			return nil, faults.Wrap(faults.ErrSchema, "", "parse metadata", fmt.Sprintf("line %d: duplicate key %q", lineNo, key), nil)
		}
		fields[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, faults.Wrap(faults.ErrSchema, "", "parse metadata", "read lines", err)
	}

	var missing []string
	for _, key := range knownFields {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, faults.Wrap(faults.ErrSchema, scope(fields["part_number"]), "parse metadata", "missing keys: "+strings.Join(missing, ", "), nil)
	}
	return fields, nil
}

// SnakeCase converts a camel-case key to lower snake case: a separator is
// inserted before every upper-case rune that is not the first character, the
// result is lower-cased, and doubled separators are collapsed.
func SnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

// ParseVersion parses a dot-separated list of non-negative integers and
// right-pads it with zeros to three components. Longer versions are kept
// as-is.
func ParseVersion(value string) (Version, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty version")
	}
	pieces := strings.Split(value, ".")
	out := make(Version, 0, max(len(pieces), versionDigits))
	for _, piece := range pieces {
		n, err := strconv.Atoi(piece)
		if err != nil || n < 0 || strings.HasPrefix(piece, "+") {
			return nil, fmt.Errorf("invalid version component %q in %q", piece, value)
		}
		out = append(out, n)
	}
	for len(out) < versionDigits {
		out = append(out, 0)
	}
	return out, nil
}

// ParseTimestamp parses an ISO-8601 date or date-time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed ISO-8601 timestamp %q", value)
}

func isKnownField(key string) bool {
	for _, known := range knownFields {
		if key == known {
			return true
		}
	}
	return false
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func schemaError(partNumber, field, message string) error {
	return faults.Wrap(faults.ErrSchema, scope(partNumber), "parse metadata", field+": "+message, nil)
}

func scope(partNumber string) string {
	if partNumber == "" {
		return ""
	}
	return "part " + partNumber
}
