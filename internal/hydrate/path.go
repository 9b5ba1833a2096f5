package hydrate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPath = errors.New("hydrate: invalid path")
	ErrPathMissing = errors.New("hydrate: path not found")
)

// Segment is one step of a field path: an object key or an array index.
type Segment struct {
	Key   string
	Index int
	// IsIndex reports whether the segment is "[n]".
	IsIndex bool
}

// ParsePath splits "inventories[1].sku" into [inventories, [1], sku].
func ParsePath(path string) ([]Segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	var segments []Segment
	rest := path
	for rest != "" {
		switch rest[0] {
		case '.':
			if len(segments) == 0 || len(rest) == 1 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			rest = rest[1:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 || len(segments) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
			}
			index, err := strconv.Atoi(rest[1:end])
			if err != nil || index < 0 {
				return nil, fmt.Errorf("%w: bad index in %q", ErrInvalidPath, path)
			}
			segments = append(segments, Segment{Index: index, IsIndex: true})
			rest = rest[end+1:]
			continue
		}
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			end = len(rest)
		}
		key := rest[:end]
		if key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		segments = append(segments, Segment{Key: key})
		rest = rest[end:]
	}
	return segments, nil
}

// SetPath writes value at path inside payload. Intermediate objects and array
// elements must already exist; the final key of an object may be new.
func SetPath(payload map[string]any, path string, value any) error {
	segments, err := ParsePath(path)
	if err != nil {
		return err
	}
	var current any = payload
	for i, segment := range segments {
		last := i == len(segments)-1
		switch container := current.(type) {
		case map[string]any:
			if segment.IsIndex {
				return fmt.Errorf("%w: %q is not an array", ErrInvalidPath, joinSegments(segments[:i]))
			}
			if last {
				container[segment.Key] = value
				return nil
			}
			next, ok := container[segment.Key]
			if !ok || next == nil {
				return fmt.Errorf("%w: %q", ErrPathMissing, joinSegments(segments[:i+1]))
			}
			current = next
		case []any:
			if !segment.IsIndex {
				return fmt.Errorf("%w: %q is not an object", ErrInvalidPath, joinSegments(segments[:i]))
			}
			if segment.Index >= len(container) {
				return fmt.Errorf("%w: %q", ErrPathMissing, joinSegments(segments[:i+1]))
			}
			if last {
				container[segment.Index] = value
				return nil
			}
			current = container[segment.Index]
		default:
			return fmt.Errorf("%w: %q is a scalar", ErrInvalidPath, joinSegments(segments[:i]))
		}
	}
	return nil
}

// GetPath reads the value at path inside payload.
func GetPath(payload map[string]any, path string) (any, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	var current any = payload
	for i, segment := range segments {
		switch container := current.(type) {
		case map[string]any:
			next, ok := container[segment.Key]
			if segment.IsIndex || !ok {
				return nil, fmt.Errorf("%w: %q", ErrPathMissing, joinSegments(segments[:i+1]))
			}
			current = next
		case []any:
			if !segment.IsIndex || segment.Index >= len(container) {
				return nil, fmt.Errorf("%w: %q", ErrPathMissing, joinSegments(segments[:i+1]))
			}
			current = container[segment.Index]
		default:
			return nil, fmt.Errorf("%w: %q", ErrPathMissing, joinSegments(segments[:i+1]))
		}
	}
	return current, nil
}

func joinSegments(segments []Segment) string {
	var b strings.Builder
	for i, segment := range segments {
		if segment.IsIndex {
			fmt.Fprintf(&b, "[%d]", segment.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segment.Key)
	}
	return b.String()
}
