// Package render formats the score board and tables for terminal or JSON
// output.
package render

import "github.com/dkoosis/playv/pkg/labs"

// Board is a snapshot of the status table.
type Board struct {
	Root    string
	Records []labs.StatusRecord
	// Cursor is the selected row, or -1 for none.
	Cursor int
	// Cwd is the directory label of the next job.
	Cwd  string
	Busy bool
}

// Counts tallies the verdicts on the board.
type Counts struct {
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`
	Unset int `json:"unset"`
}

// Count tallies b's verdicts.
func (b Board) Count() Counts {
	var c Counts
	for _, r := range b.Records {
		switch r.Verdict {
		case labs.Pass:
			c.Pass++
		case labs.Fail:
			c.Fail++
		default:
			c.Unset++
		}
	}
	return c
}

// Renderer converts a board to formatted output.
type Renderer interface {
	Render(b Board) string
}
