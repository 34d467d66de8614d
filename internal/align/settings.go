package align

// Policy names an alignment mode.
type Policy int

const (
	PolicyNone Policy = iota
	// PolicyLeft aligns boxes within one question or draft group.
	PolicyLeft
	// PolicyPaperFirst aligns every question of a paper to one reference.
	PolicyPaperFirst
)

func (p Policy) String() string {
	switch p {
	case PolicyLeft:
		return "left"
	case PolicyPaperFirst:
		return "paper_first"
	}
	return "none"
}

// Settings holds the alignment switches. Left and PaperFirst exclude each
// other; Answer is independent.
type Settings struct {
	left       bool
	paperFirst bool
	answer     bool
}

// DefaultSettings has per-question and answer alignment on.
func DefaultSettings() Settings {
	return Settings{left: true, answer: true}
}

// NewSettings builds settings from stored switches. When both exclusive
// switches are on, Left wins.
func NewSettings(left, paperFirst, answer bool) Settings {
	s := Settings{answer: answer}
	s.SetPaperFirst(paperFirst)
	s.SetLeft(left)
	return s
}

// Left reports whether per-question alignment is on.
func (s Settings) Left() bool { return s.left }

// PaperFirst reports whether per-paper alignment is on.
func (s Settings) PaperFirst() bool { return s.paperFirst }

// Answer reports whether answer alignment is on.
func (s Settings) Answer() bool { return s.answer }

// SetLeft toggles per-question alignment, turning per-paper off when enabled.
func (s *Settings) SetLeft(v bool) {
	s.left = v
	if v {
		s.paperFirst = false
	}
}

// SetPaperFirst toggles per-paper alignment, turning per-question off when enabled.
func (s *Settings) SetPaperFirst(v bool) {
	s.paperFirst = v
	if v {
		s.left = false
	}
}

// SetAnswer toggles answer alignment.
func (s *Settings) SetAnswer(v bool) { s.answer = v }

// MarkPolicy returns the active question-marking policy.
func (s Settings) MarkPolicy() Policy {
	switch {
	case s.paperFirst:
		return PolicyPaperFirst
	case s.left:
		return PolicyLeft
	}
	return PolicyNone
}
