package game

import "fmt"

// Board is the data model behind the drag-and-drop blank filling UI: the
// current blank assignments plus the pool of tokens not yet placed. The
// presentation layer owns rendering and drag events; the move rules live
// here so they can be tested without any UI toolkit.
type Board struct {
	Blanks []string
	Pool   []string
}

// Move relocates a token onto a blank. FromBlank is nil when the token is
// dragged out of the pool; otherwise it is the source blank index.
type Move struct {
	Token     string
	FromBlank *int
	ToBlank   int
}

// NewBoard builds the starting state for a question: all blanks empty, the
// full option pool available (the pool may hold distractors, so it can be
// larger than the number of blanks).
func NewBoard(prompt string, options []string) Board {
	return Board{
		Blanks: make([]string, BlankCount(prompt)),
		Pool:   append([]string(nil), options...),
	}
}

// Apply performs a move and returns the resulting board. Rules:
//   - pool -> empty blank: token leaves the pool;
//   - pool -> occupied blank: the displaced token returns to the pool;
//   - blank -> blank: the two tokens swap positions (nothing is lost);
//   - moving within one blank is a no-op.
func (b Board) Apply(m Move) (Board, error) {
	next := b.clone()

	if m.ToBlank < 0 || m.ToBlank >= len(next.Blanks) {
		return b, fmt.Errorf("target blank %d out of range [0,%d)", m.ToBlank, len(next.Blanks))
	}

	if m.FromBlank != nil {
		src := *m.FromBlank
		if src < 0 || src >= len(next.Blanks) {
			return b, fmt.Errorf("source blank %d out of range [0,%d)", src, len(next.Blanks))
		}
		if next.Blanks[src] != m.Token {
			return b, fmt.Errorf("blank %d does not hold token %q", src, m.Token)
		}
		if src == m.ToBlank {
			return b, nil
		}
		next.Blanks[src], next.Blanks[m.ToBlank] = next.Blanks[m.ToBlank], m.Token
		return next, nil
	}

	idx := indexOf(next.Pool, m.Token)
	if idx < 0 {
		return b, fmt.Errorf("token %q not in pool", m.Token)
	}
	next.Pool = append(next.Pool[:idx], next.Pool[idx+1:]...)
	if displaced := next.Blanks[m.ToBlank]; displaced != "" {
		next.Pool = append(next.Pool, displaced)
	}
	next.Blanks[m.ToBlank] = m.Token
	return next, nil
}

// Remove vacates a blank, returning its token to the pool.
func (b Board) Remove(blankIndex int) (Board, error) {
	if blankIndex < 0 || blankIndex >= len(b.Blanks) {
		return b, fmt.Errorf("blank %d out of range [0,%d)", blankIndex, len(b.Blanks))
	}
	if b.Blanks[blankIndex] == "" {
		return b, nil
	}
	next := b.clone()
	next.Pool = append(next.Pool, next.Blanks[blankIndex])
	next.Blanks[blankIndex] = ""
	return next, nil
}

func (b Board) clone() Board {
	return Board{
		Blanks: append([]string(nil), b.Blanks...),
		Pool:   append([]string(nil), b.Pool...),
	}
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}
