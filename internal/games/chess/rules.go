package chess

import (
	"github.com/moltblox/gamekit/internal/board"
	"github.com/moltblox/gamekit/internal/engine"
)

// movePlan is a fully-resolved candidate move. Planning never touches
// the board; execution applies every part of the move (captures,
// castling rook shift, promotion) atomically under one undo log.
type movePlan struct {
	from, to   board.Square
	promo      board.Kind // Empty when not a promotion
	isCastle   bool
	rookFrom   board.Square
	rookTo     board.Square
	isEP       bool
	epCaptured board.Square
	isDouble   bool
}

func (m *Module) applyMove(seat int, payload engine.Payload) engine.ActionResult {
	fromIdx, ok := payload.Int("from")
	if !ok {
		return engine.Invalidf("move requires integer field %q", "from")
	}
	toIdx, ok := payload.Int("to")
	if !ok {
		return engine.Invalidf("move requires integer field %q", "to")
	}
	from, to := board.Square(fromIdx), board.Square(toIdx)
	if !from.Valid() || !to.Valid() {
		return engine.Invalidf("square out of range: from=%d to=%d", fromIdx, toIdx)
	}
	promo, promoErr := m.promotionKind(payload)
	if promoErr != "" {
		return engine.Invalidf("%s", promoErr)
	}

	mover := board.Color(seat)
	plan, reason := m.planMove(mover, from, to, promo)
	if reason != "" {
		return engine.Illegalf("%s", reason)
	}

	captured := m.st.Board.PieceAt(to)
	if plan.isEP {
		captured = m.st.Board.PieceAt(plan.epCaptured)
	}

	// Speculative apply: commit the whole move under an undo log, then
	// test whether the mover's own king is attacked. A rejected move
	// reverts every touched cell before returning.
	var undo board.Undo
	m.execute(plan, &undo)
	if king := m.st.Board.KingSquare(mover); m.st.Board.Attacked(king, mover.Other()) {
		undo.Revert(&m.st.Board)
		return engine.Illegalf("move leaves own king attacked")
	}

	// Committed. Derived fields update after the board does.
	if plan.isDouble {
		dir := 1
		if mover == board.Black {
			dir = -1
		}
		m.st.EnPassant = board.At(from.File(), from.Rank()+dir)
	} else {
		m.st.EnPassant = board.NoSquare
	}
	m.st.Moves++

	m.emit("moved", m.players[seat], map[string]any{
		"from": int(from), "to": int(to),
	})
	if !captured.IsEmpty() {
		m.emit("captured", m.players[seat], map[string]any{
			"square": int(to), "kind": int(captured.Kind),
		})
	}
	if plan.promo != board.Empty {
		m.emit("promoted", m.players[seat], map[string]any{
			"square": int(to), "kind": int(plan.promo),
		})
	}
	if plan.isCastle {
		m.emit("castled", m.players[seat], map[string]any{
			"king_to": int(to),
		})
	}

	m.finishTurn(mover)
	return engine.OK(m.envelope(), m.events)
}

// finishTurn advances the turn pointer exactly once and runs terminal
// detection for the side now to move.
func (m *Module) finishTurn(mover board.Color) {
	opp := mover.Other()
	inCheck := m.st.Board.Attacked(m.st.Board.KingSquare(opp), mover)
	hasMove := m.hasAnyLegalMove(opp)

	switch {
	case !hasMove && inCheck:
		m.st.Ended = true
		m.st.WinnerIdx = int(mover)
		m.emit("checkmate", m.players[mover], nil)
	case !hasMove:
		m.st.Ended = true
		if m.stalemateLoses {
			// Variant policy: the stalemated side loses.
			m.st.WinnerIdx = int(mover)
		} else {
			m.st.Draw = true
		}
		m.emit("stalemate", m.players[mover], nil)
	case inCheck:
		m.emit("check", m.players[mover], nil)
	}
	m.st.TurnIdx = int(opp)
}

func (m *Module) promotionKind(payload engine.Payload) (board.Kind, string) {
	name, present := payload.String("promotion")
	if !present {
		return board.Empty, ""
	}
	kinds := map[string]board.Kind{
		"queen":  board.Queen,
		"rook":   board.Rook,
		"bishop": board.Bishop,
		"knight": board.Knight,
	}
	k, ok := kinds[name]
	if !ok {
		return board.Empty, "unknown promotion piece " + name
	}
	if k == board.Bishop && m.leaperBishops {
		k = board.Leaper
	}
	return k, ""
}

// planMove validates the movement pattern and resolves special-move
// mechanics without mutating anything. An empty reason means legal so
// far; check legality is tested by speculative apply afterwards.
func (m *Module) planMove(mover board.Color, from, to board.Square, promo board.Kind) (movePlan, string) {
	b := &m.st.Board
	p := b.PieceAt(from)
	if p.IsEmpty() || p.Color != mover {
		return movePlan{}, "no piece of yours on that square"
	}
	if from == to {
		return movePlan{}, "null move"
	}
	if dst := b.PieceAt(to); !dst.IsEmpty() && dst.Color == mover {
		return movePlan{}, "destination occupied by own piece"
	}

	plan := movePlan{from: from, to: to}

	if p.Kind == board.Pawn {
		return m.planPawnMove(mover, from, to, promo)
	}
	if promo != board.Empty {
		return movePlan{}, "only pawns promote"
	}

	// Castling: king moves two files along its own rank.
	if p.Kind == board.King && !p.Moved && from.Rank() == to.Rank() &&
		abs(to.File()-from.File()) == 2 {
		return m.planCastle(mover, from, to)
	}

	if !b.CanReach(from, to) {
		return movePlan{}, "piece cannot move that way"
	}
	return plan, ""
}

func (m *Module) planPawnMove(mover board.Color, from, to board.Square, promo board.Kind) (movePlan, string) {
	b := &m.st.Board
	dir, startRank, lastRank := 1, 1, 7
	if mover == board.Black {
		dir, startRank, lastRank = -1, 6, 0
	}
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()
	plan := movePlan{from: from, to: to}

	switch {
	case df == 0 && dr == dir && b.PieceAt(to).IsEmpty():
		// single step
	case df == 0 && dr == 2*dir && from.Rank() == startRank &&
		b.PieceAt(board.At(from.File(), from.Rank()+dir)).IsEmpty() &&
		b.PieceAt(to).IsEmpty():
		plan.isDouble = true
	case abs(df) == 1 && dr == dir && !b.PieceAt(to).IsEmpty():
		// ordinary capture; own-piece occupancy already rejected
	case abs(df) == 1 && dr == dir && to == m.st.EnPassant:
		plan.isEP = true
		plan.epCaptured = board.At(to.File(), from.Rank())
	default:
		return movePlan{}, "pawn cannot move that way"
	}

	if to.Rank() == lastRank {
		if promo == board.Empty {
			promo = board.Queen
		}
		if promo == board.Pawn || promo == board.King {
			return movePlan{}, "cannot promote to that piece"
		}
		plan.promo = promo
	} else if promo != board.Empty {
		return movePlan{}, "promotion only on the last rank"
	}
	return plan, ""
}

func (m *Module) planCastle(mover board.Color, from, to board.Square) (movePlan, string) {
	b := &m.st.Board
	rank := from.Rank()
	var rookFrom, rookTo board.Square
	if to.File() > from.File() { // king side
		rookFrom, rookTo = board.At(7, rank), board.At(5, rank)
	} else {
		rookFrom, rookTo = board.At(0, rank), board.At(3, rank)
	}
	rook := b.PieceAt(rookFrom)
	if rook.Kind != board.Rook || rook.Color != mover || rook.Moved {
		return movePlan{}, "castling rook unavailable"
	}
	step := 1
	if to.File() < from.File() {
		step = -1
	}
	for f := from.File() + step; f != rookFrom.File(); f += step {
		if !b.PieceAt(board.At(f, rank)).IsEmpty() {
			return movePlan{}, "castling path blocked"
		}
	}
	// The king may not castle out of or through an attacked square;
	// the destination square is covered by the speculative-apply scan.
	if b.Attacked(from, mover.Other()) {
		return movePlan{}, "cannot castle while in check"
	}
	if b.Attacked(board.At(from.File()+step, rank), mover.Other()) {
		return movePlan{}, "cannot castle through an attacked square"
	}
	return movePlan{
		from: from, to: to,
		isCastle: true, rookFrom: rookFrom, rookTo: rookTo,
	}, ""
}

// execute applies every part of the plan to the board under the undo
// log. Promotion, en passant capture, and the castling rook shift are
// atomic parts of the one move.
func (m *Module) execute(plan movePlan, u *board.Undo) {
	b := &m.st.Board
	p := b.PieceAt(plan.from)
	p.Moved = true
	if plan.promo != board.Empty {
		p.Kind = plan.promo
	}
	b.Clear(plan.from, u)
	b.Set(plan.to, p, u)
	if plan.isEP {
		b.Clear(plan.epCaptured, u)
	}
	if plan.isCastle {
		rook := b.PieceAt(plan.rookFrom)
		rook.Moved = true
		b.Clear(plan.rookFrom, u)
		b.Set(plan.rookTo, rook, u)
	}
}

// hasAnyLegalMove enumerates candidate moves for side and tests each
// by speculative apply and revert.
func (m *Module) hasAnyLegalMove(side board.Color) bool {
	b := &m.st.Board
	for from := board.Square(0); from < 64; from++ {
		p := b.PieceAt(from)
		if p.IsEmpty() || p.Color != side {
			continue
		}
		for to := board.Square(0); to < 64; to++ {
			plan, reason := m.planMove(side, from, to, board.Empty)
			if reason != "" {
				continue
			}
			var undo board.Undo
			m.execute(plan, &undo)
			safe := !b.Attacked(b.KingSquare(side), side.Other())
			undo.Revert(b)
			if safe {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
