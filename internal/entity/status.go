package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a purchase order, persisted by name.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusApproved  Status = "Approved"
	StatusShipped   Status = "Shipped"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every status in declaration order; the index is the
// numeric form accepted from clients.
var Statuses = []Status{
	StatusDraft,
	StatusApproved,
	StatusShipped,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus resolves a status name (case-insensitive) or its numeric index.
func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 || n >= len(Statuses) {
			return "", false
		}
		return Statuses[n], true
	}
	for _, s := range Statuses {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// UnmarshalJSON accepts a name or a numeric index. Unknown values are kept
// verbatim so the boundary validator can report them against the field.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	if parsed, ok := ParseStatus(raw); ok {
		*s = parsed
		return nil
	}
	*s = Status(raw)
	return nil
}
