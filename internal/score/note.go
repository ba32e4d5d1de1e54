// Package score holds the in-memory representation of a tracker module:
// instruments, samples, patterns of rows of per-channel elements, and the
// song header that ties them together. Everything here is built once by a
// loader and then only read during playback, except for the per-row
// played markers.
package score

import "fmt"

// Note values. 1..NoteCount are playable keys, C-0 being 1.
const (
	NoteNone  = 0
	NoteCount = 120
	NoteFade  = 253
	NoteCut   = 254
	NoteOff   = 255
)

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// IsPlayable reports whether n triggers a sample.
func IsPlayable(n int) bool { return n >= 1 && n <= NoteCount }

// NoteName renders n the way trackers display it: "C-5", "F#3", and the
// special markers "===" (off), "^^^" (cut), "~~~" (fade) and "..." (none).
func NoteName(n int) string {
	switch {
	case n == NoteNone:
		return "..."
	case n == NoteOff:
		return "==="
	case n == NoteCut:
		return "^^^"
	case n == NoteFade:
		return "~~~"
	case IsPlayable(n):
		return fmt.Sprintf("%s%d", noteNames[(n-1)%12], (n-1)/12)
	default:
		return "???"
	}
}

// ParseNote is the inverse of NoteName.
func ParseNote(s string) (int, error) {
	switch s {
	case "...", "---", "":
		return NoteNone, nil
	case "===", "off", "OFF":
		return NoteOff, nil
	case "^^^", "cut":
		return NoteCut, nil
	case "~~~", "fade":
		return NoteFade, nil
	}
	if len(s) != 3 || s[2] < '0' || s[2] > '9' {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	for i, name := range noteNames {
		if s[:2] == name {
			return int(s[2]-'0')*12 + i + 1, nil
		}
	}
	return 0, fmt.Errorf("invalid note %q", s)
}
