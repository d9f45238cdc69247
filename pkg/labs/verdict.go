package labs

import (
	"fmt"
	"strings"
)

// Verdict is the persisted pass/fail state of a problem.
type Verdict int

const (
	// Unset means the problem was never run or was reset.
	Unset Verdict = iota
	// Pass means the result artifact reads "pass".
	Pass
	// Fail means the job failed or the artifact holds anything else.
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	default:
		return "NULL"
	}
}

// ParseVerdict accepts the String forms case-insensitively. "UNSET" and the
// empty string are accepted for Unset.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS":
		return Pass, nil
	case "FAIL":
		return Fail, nil
	case "NULL", "UNSET", "":
		return Unset, nil
	default:
		return Unset, fmt.Errorf("unknown verdict %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
