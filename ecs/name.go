package ecs

// Name is the built-in component every World registers automatically: a
// human-readable label for diagnostics. It is only registered; nothing
// attaches it to entities, including blueprint or scene spawning.
type Name struct {
	Value string
}
