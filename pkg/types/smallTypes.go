package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LogOffset is the byte position of an entity's line in its log file.
// The zero value is unpersisted; the log store assigns the real offset exactly
// once when the line is appended. The invariant "offset assigned ⇔ persisted"
// lives here: domain code can read the offset but has no reason to set it.
type LogOffset struct {
	off int64
	set bool
}

func PersistedAt(off int64) LogOffset {
	return LogOffset{off: off, set: true}
}

func (o LogOffset) Persisted() bool {
	return o.set
}

// Value returns the recorded byte offset, or -1 when unpersisted.
func (o LogOffset) Value() int64 {
	if !o.set {
		return -1
	}
	return o.off
}

// Vote is the polarity of a Like record.
type Vote int

const (
	VoteLike Vote = iota
	VoteDislike
)

func (v Vote) String() string {
	if v == VoteDislike {
		return "DISLIKE"
	}
	return "LIKE"
}

func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Vote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "LIKE":
		*v = VoteLike
	case "DISLIKE":
		*v = VoteDislike
	default:
		return fmt.Errorf("unknown vote type %q", s)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
