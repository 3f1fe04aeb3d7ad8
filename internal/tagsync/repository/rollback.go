package repository

// RollbackCommands reverse-applies commands against the repository:
// each Add action is undone by removing the tag, each Remove action
// by re-inserting it (spec.md §4.3). Used to undo a Patch for
// commands whose execution on the real collaborator failed, so the
// persisted baseline reflects only changes that actually committed.
func (r *Repository) RollbackCommands(commands []Command) {
	for _, cmd := range commands {
		tags := r.Lookup(cmd.Path).Clone()
		for _, a := range cmd.Actions {
			switch a.Modification {
			case Add:
				tags.Remove(a.Tag)
			case Remove:
				tags.Insert(a.Tag)
			}
		}
		r.Insert(cmd.Path, tags)
	}
}
