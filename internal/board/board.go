// Package board provides grid/positional primitives shared by
// rule modules: squares, table-driven piece movement, attack scans,
// and speculative apply with an explicit undo log.
package board

// Square indexes an 8x8 grid, 0..63, a1 = 0, h8 = 63.
type Square int

// NoSquare marks an absent square (no en passant target, etc).
const NoSquare Square = -1

// File returns the square's file, 0..7.
func (s Square) File() int { return int(s) % 8 }

// Rank returns the square's rank, 0..7.
func (s Square) Rank() int { return int(s) / 8 }

// At builds a square from file and rank. Returns NoSquare when out of
// bounds.
func At(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

// Valid reports whether the square is on the board.
func (s Square) Valid() bool { return s >= 0 && s < 64 }

// Color of a piece's side. Sides map onto player-list indices: index 0
// is White, index 1 is Black.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color { return 1 - c }

// Kind identifies a piece's movement behavior.
type Kind uint8

const (
	Empty Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	// Leaper is the variant bishop replacement: a two-square diagonal
	// leap whose midpoint square must be empty.
	Leaper
)

// Piece occupies a square. Moved tracks castling/double-step rights.
type Piece struct {
	Kind  Kind  `json:"k"`
	Color Color `json:"c"`
	Moved bool  `json:"m,omitempty"`
}

// IsEmpty reports whether this is the empty placeholder.
func (p Piece) IsEmpty() bool { return p.Kind == Empty }

// Board is a dense 8x8 grid of pieces.
type Board struct {
	Cells [64]Piece `json:"cells"`
}

// PieceAt returns the piece on sq.
func (b *Board) PieceAt(sq Square) Piece { return b.Cells[sq] }

// KingSquare locates c's king; NoSquare if absent.
func (b *Board) KingSquare(c Color) Square {
	for sq := Square(0); sq < 64; sq++ {
		p := b.Cells[sq]
		if p.Kind == King && p.Color == c {
			return sq
		}
	}
	return NoSquare
}
