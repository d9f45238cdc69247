package labs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoLabs is returned when the root has no lab directories.
	ErrNoLabs = errors.New("no lab folders found")
	// ErrNoProblems is returned when no lab has a problem directory.
	ErrNoProblems = errors.New("no problems found in any lab folder")
)

// UnnamedLabel is shown for a lab-level entry that has no problem name.
const UnnamedLabel = "(unnamed)"

// Problem identifies one assignment unit. A lab without problem directories
// is represented by a Problem with an empty Name whose Dir is the lab itself.
type Problem struct {
	Lab  string
	Name string
	Dir  string
}

// Key is the "lab/problem" identifier used for lookups and display.
func (p Problem) Key() string {
	if p.Name == "" {
		return p.Lab
	}
	return p.Lab + "/" + p.Name
}

// Label is the problem name, or UnnamedLabel for a lab-level entry.
func (p Problem) Label() string {
	if p.Name == "" {
		return UnnamedLabel
	}
	return p.Name
}

// StatusRecord is one row of the score board.
type StatusRecord struct {
	Problem
	Verdict Verdict
}

// Lab is one lab directory and its problems.
type Lab struct {
	Name     string
	Dir      string
	Problems []Problem
}

// Tree is the discovered lab hierarchy.
type Tree struct {
	Root string
	Labs []Lab
	// Unreadable lists lab directories whose children could not be listed.
	Unreadable []string
}

// Discover lists the labs under root and the problems inside each lab.
// Hidden directories are skipped and names are sorted.
func Discover(root string) (Tree, error) {
	tree := Tree{Root: root}
	labDirs, err := subdirs(root)
	if err != nil {
		return tree, fmt.Errorf("list labs in %s: %w", root, err)
	}
	for _, name := range labDirs {
		lab := Lab{Name: name, Dir: filepath.Join(root, name)}
		probs, err := subdirs(lab.Dir)
		if err != nil {
			tree.Unreadable = append(tree.Unreadable, lab.Dir)
		}
		for _, p := range probs {
			lab.Problems = append(lab.Problems, Problem{Lab: name, Name: p, Dir: filepath.Join(lab.Dir, p)})
		}
		tree.Labs = append(tree.Labs, lab)
	}
	return tree, nil
}

// Validate reports ErrNoLabs or ErrNoProblems.
func (t Tree) Validate() error {
	if len(t.Labs) == 0 {
		return ErrNoLabs
	}
	for _, lab := range t.Labs {
		if len(lab.Problems) > 0 {
			return nil
		}
	}
	return ErrNoProblems
}

// Problems flattens the tree in display order. A lab without problems
// contributes one lab-level entry.
func (t Tree) Problems() []Problem {
	var out []Problem
	for _, lab := range t.Labs {
		if len(lab.Problems) == 0 {
			out = append(out, Problem{Lab: lab.Name, Dir: lab.Dir})
			continue
		}
		out = append(out, lab.Problems...)
	}
	return out
}

// Find looks up a problem by its Key.
func (t Tree) Find(key string) (Problem, bool) {
	key = strings.Trim(key, "/")
	for _, p := range t.Problems() {
		if p.Key() == key {
			return p, true
		}
	}
	return Problem{}, false
}

// Records resolves every problem with Scan semantics.
func (t Tree) Records(r Resolver) []StatusRecord {
	probs := t.Problems()
	out := make([]StatusRecord, 0, len(probs))
	for _, p := range probs {
		out = append(out, StatusRecord{Problem: p, Verdict: r.Scan(p.Dir)})
	}
	return out
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.IsDir() {
			// Follow symlinks to directories.
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
