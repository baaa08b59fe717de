package domain

import "strings"

// Group represents a visual grouping container. Its composite id is
// "<name>:<level>"; the level orders nested groups on the canvas.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

// SplitGroupID splits a composite group id into name and level. Ids without
// a level part come back with an empty level.
func SplitGroupID(id string) (name, level string) {
	idx := strings.LastIndex(id, ":")
	if idx < 0 {
		return id, ""
	}
	return id[:idx], id[idx+1:]
}

// GroupID joins a name and level into the composite id form.
func GroupID(name, level string) string {
	if level == "" {
		return name
	}
	return name + ":" + level
}
