package repository

import (
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// Modification is the kind of change a single command action makes.
type Modification int

const (
	// Add instructs the collaborator to add the action's tag.
	Add Modification = iota
	// Remove instructs the collaborator to remove the action's tag.
	Remove
)

func (m Modification) String() string {
	if m == Add {
		return "add"
	}
	return "remove"
}

// Action is a single per-tag instruction within a Command.
type Action struct {
	Tag          tag.Tag
	Modification Modification
}

// Command is a per-path instruction to a side collaborator: a list of
// independent tag actions (spec.md §3).
type Command struct {
	Path    syncedpath.Path
	Actions []Action
}

// CommandsFrom turns hunks into commands for the side that must adopt
// the hunk's removed/added tags: a hunk's Removed tags become Remove
// actions, its Added tags become Add actions. Commands with no
// actions are dropped (spec.md §4.5 step 3).
func CommandsFrom(hunks []Hunk) []Command {
	var out []Command
	for _, h := range hunks {
		var actions []Action
		for _, t := range h.Removed.Sorted() {
			actions = append(actions, Action{Tag: t, Modification: Remove})
		}
		for _, t := range h.Added.Sorted() {
			actions = append(actions, Action{Tag: t, Modification: Add})
		}
		if len(actions) == 0 {
			continue
		}
		out = append(out, Command{Path: h.Path, Actions: actions})
	}
	return out
}
