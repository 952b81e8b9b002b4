// Package logtext renders the engine's structured game log as display text.
//
// Messages live in an x/text catalog keyed by event kind. Only English ships;
// any other language preference falls back to it.
package logtext
