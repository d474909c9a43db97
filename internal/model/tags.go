package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is an ordered list of tag names. It is stored as a JSON array.
type Tags []string

// ParseTags splits a comma separated list, trimming blanks.
func ParseTags(s string) Tags {
	tags := Tags{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func (t Tags) Clone() Tags {
	if t == nil {
		return Tags{}
	}
	c := make(Tags, len(t))
	copy(c, t)
	return c
}

// SameSet reports whether t and other hold the same tags, ignoring order.
// Duplicates are counted.
func (t Tags) SameSet(other Tags) bool {
	if len(t) != len(other) {
		return false
	}
	counts := make(map[string]int, len(t))
	for _, tag := range t {
		counts[tag]++
	}
	for _, tag := range other {
		counts[tag]--
		if counts[tag] < 0 {
			return false
		}
	}
	return true
}

func (t Tags) String() string {
	return strings.Join(t, ", ")
}

func (t Tags) Value() (driver.Value, error) {
	b, err := json.Marshal(t.Clone())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}

	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}

	var tags Tags
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("error decoding tags: %w", err)
	}
	*t = tags.Clone()
	return nil
}
