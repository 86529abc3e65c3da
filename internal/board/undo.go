package board

// Undo records exactly the cells touched by a speculative apply so a
// rejected move can be reverted with no partial mutation left behind.
type Undo struct {
	changes []change
}

type change struct {
	sq   Square
	prev Piece
}

// Set writes p to sq, recording the previous occupant in u when u is
// non-nil.
func (b *Board) Set(sq Square, p Piece, u *Undo) {
	if u != nil {
		u.changes = append(u.changes, change{sq: sq, prev: b.Cells[sq]})
	}
	b.Cells[sq] = p
}

// Clear empties sq, recording the previous occupant in u.
func (b *Board) Clear(sq Square, u *Undo) {
	b.Set(sq, Piece{}, u)
}

// Revert undoes every recorded change in reverse order and resets the
// log for reuse.
func (u *Undo) Revert(b *Board) {
	for i := len(u.changes) - 1; i >= 0; i-- {
		b.Cells[u.changes[i].sq] = u.changes[i].prev
	}
	u.changes = u.changes[:0]
}

// Len reports how many cell writes the log holds.
func (u *Undo) Len() int { return len(u.changes) }
