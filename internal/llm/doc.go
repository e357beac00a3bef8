// Package llm generates short chat answers with a generative-text backend
// and classifies backend failures into a small set of error kinds.
package llm
