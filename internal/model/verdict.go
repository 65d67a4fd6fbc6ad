package model

// Verdict is the classification result for a content item. Values are
// kept in Spanish because they are stored as-is and returned verbatim
// to the calling surface.
type Verdict string

const (
	VerdictTrue     Verdict = "verdadera"
	VerdictFalse    Verdict = "falsa"
	VerdictDoubtful Verdict = "dudosa"
)

// Valid reports whether v is one of the known verdict values.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictFalse, VerdictDoubtful:
		return true
	}
	return false
}
