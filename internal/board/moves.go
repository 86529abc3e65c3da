package board

// Delta is a (file, rank) offset.
type Delta struct {
	File int
	Rank int
}

type leap struct {
	to  Delta
	mid Delta // must be empty
}

// moveTable drives non-pawn movement: single steps, unobstructed
// slides, and leaps with a required-empty midpoint.
type moveTable struct {
	steps  []Delta
	slides []Delta
	leaps  []leap
}

var (
	orthoDirs = []Delta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagDirs  = []Delta{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allDirs   = []Delta{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

	knightSteps = []Delta{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

var tables = map[Kind]moveTable{
	Knight: {steps: knightSteps},
	King:   {steps: allDirs},
	Bishop: {slides: diagDirs},
	Rook:   {slides: orthoDirs},
	Queen:  {slides: allDirs},
	Leaper: {leaps: []leap{
		{to: Delta{2, 2}, mid: Delta{1, 1}},
		{to: Delta{2, -2}, mid: Delta{1, -1}},
		{to: Delta{-2, 2}, mid: Delta{-1, 1}},
		{to: Delta{-2, -2}, mid: Delta{-1, -1}},
	}},
}

// CanReach reports whether the piece on from can reach to under its
// movement table: a matching step, an unobstructed slide, or a leap
// with an empty midpoint. Pawns are not table-driven; the capture flag
// and forward asymmetry live in Attacked and the chess module.
func (b *Board) CanReach(from, to Square) bool {
	p := b.PieceAt(from)
	t, ok := tables[p.Kind]
	if !ok {
		return false
	}
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()

	for _, s := range t.steps {
		if s.File == df && s.Rank == dr {
			return true
		}
	}
	for _, l := range t.leaps {
		if l.to.File == df && l.to.Rank == dr {
			mid := At(from.File()+l.mid.File, from.Rank()+l.mid.Rank)
			return mid.Valid() && b.PieceAt(mid).IsEmpty()
		}
	}
	for _, dir := range t.slides {
		if !sameDirection(dir, df, dr) {
			continue
		}
		return b.clearPath(from, to, dir)
	}
	return false
}

func sameDirection(dir Delta, df, dr int) bool {
	if dir.File == 0 && df != 0 {
		return false
	}
	if dir.Rank == 0 && dr != 0 {
		return false
	}
	if dir.File != 0 && (df%dir.File != 0 || df/dir.File <= 0) {
		return false
	}
	if dir.Rank != 0 && (dr%dir.Rank != 0 || dr/dir.Rank <= 0) {
		return false
	}
	// Diagonal slides must advance both axes in lockstep.
	if dir.File != 0 && dir.Rank != 0 && df/dir.File != dr/dir.Rank {
		return false
	}
	return true
}

// clearPath checks every square strictly between from and to along dir.
func (b *Board) clearPath(from, to Square, dir Delta) bool {
	f, r := from.File()+dir.File, from.Rank()+dir.Rank
	for {
		sq := At(f, r)
		if !sq.Valid() {
			return false
		}
		if sq == to {
			return true
		}
		if !b.PieceAt(sq).IsEmpty() {
			return false
		}
		f += dir.File
		r += dir.Rank
	}
}

// Attacked reports whether sq is attacked by any piece of color by.
// Pawn attacks are the two forward diagonals for the attacking side.
func (b *Board) Attacked(sq Square, by Color) bool {
	// Pawn attacks: a pawn of color by on sq-diag attacks sq.
	dir := 1
	if by == Black {
		dir = -1
	}
	for _, df := range []int{-1, 1} {
		from := At(sq.File()+df, sq.Rank()-dir)
		if from.Valid() {
			p := b.PieceAt(from)
			if p.Kind == Pawn && p.Color == by {
				return true
			}
		}
	}
	for from := Square(0); from < 64; from++ {
		p := b.PieceAt(from)
		if p.IsEmpty() || p.Color != by || p.Kind == Pawn {
			continue
		}
		if b.CanReach(from, sq) {
			return true
		}
	}
	return false
}
