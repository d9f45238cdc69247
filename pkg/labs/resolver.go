package labs

import (
	"fmt"
	"os"
	"strings"
)

// PassToken is the result artifact content that means the simulation passed.
const PassToken = "pass"

// Resolver maps a problem's result artifact to a Verdict. It reads from disk
// on every call.
type Resolver struct {
	Layout Layout
}

// NewResolver returns a resolver for layout.
func NewResolver(layout Layout) Resolver {
	return Resolver{Layout: layout.WithDefaults()}
}

// Read returns Pass or Fail for a readable artifact, or an error when the
// artifact is missing or unreadable.
func (r Resolver) Read(dir string) (Verdict, error) {
	path := r.Layout.ResultPath(dir)
	// #nosec G304 -- path is built from the discovered lab tree
	data, err := os.ReadFile(path)
	if err != nil {
		return Fail, fmt.Errorf("read result %s: %w", path, err)
	}
	return ParseResult(string(data)), nil
}

// AfterTest resolves a problem whose test job just ran. An unreadable
// artifact is a failure.
func (r Resolver) AfterTest(dir string) Verdict {
	v, err := r.Read(dir)
	if err != nil {
		return Fail
	}
	return v
}

// Scan resolves a problem during discovery or after a reset. An unreadable
// artifact means the problem has not been run.
func (r Resolver) Scan(dir string) Verdict {
	v, err := r.Read(dir)
	if err != nil {
		return Unset
	}
	return v
}

// ParseResult maps artifact content to Pass or Fail.
func ParseResult(content string) Verdict {
	if strings.ToLower(strings.TrimSpace(content)) == PassToken {
		return Pass
	}
	return Fail
}
