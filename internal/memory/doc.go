// Package memory remembers the last few questions and answers exchanged with
// each chat user so follow-up questions can be answered in context.
// Nothing is persisted; a restart starts from an empty store.
package memory
