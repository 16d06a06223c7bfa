// Package model defines the typed form configuration consumed by the engine:
// sections, subsections and fields with their validation rules, showIf
// conditions and option specs, plus the named remote option sources. It also
// owns the Answers map and the helpers that fold decoded values onto the
// canonical answer shapes (string, []string, float64, bool, table rows), so
// every package agrees on what a stored value looks like.
//
// Configuration values are immutable once loaded. Field lookups walk the
// declared sections in order, so the first declaration of an id wins.
package model
