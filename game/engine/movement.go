package engine

// StepMap records, for every piece touched by a chain query, how many steps
// the chain may advance.
type StepMap map[PieceID]int

// SingleStepCount returns how many whole steps the piece can slide in the
// direction before leaving the board or meeting another piece.
func (b *Board) SingleStepCount(id PieceID, dir Direction) (int, error) {
	p, err := b.lookup(id)
	if err != nil {
		return 0, err
	}
	if dir < Left || dir > Down {
		return 0, ErrInvalidDirection
	}
	return b.singleSteps(p, dir), nil
}

// singleSteps scans the strip beyond the leading edge one line at a time
func (b *Board) singleSteps(p *Piece, dir Direction) int {
	return b.freeRun(p, dir, nil)
}

// freeRun counts the clear lines ahead of the piece. Cells held by pieces in
// moving count as clear since those pieces advance in lockstep.
func (b *Board) freeRun(p *Piece, dir Direction, moving map[PieceID]struct{}) int {
	steps := 0
	for {
		line, ok := b.leadingLine(p, dir, steps+1)
		if !ok {
			return steps
		}
		for _, id := range line {
			if id == NoPiece || id == p.ID {
				continue
			}
			if _, ok := moving[id]; !ok {
				return steps
			}
		}
		steps++
	}
}

// leadingLine returns the cells of the row or column `distance` cells beyond
// the piece's leading edge, spanning the piece's width or height. ok is false
// once that line falls off the board.
func (b *Board) leadingLine(p *Piece, dir Direction, distance int) ([]PieceID, bool) {
	var line []PieceID
	switch dir {
	case Left, Right:
		col := p.Col - distance
		if dir == Right {
			col = p.Col + p.Width - 1 + distance
		}
		if col < 0 || col >= b.width {
			return nil, false
		}
		line = make([]PieceID, 0, p.Height)
		for row := p.Row; row < p.Row+p.Height; row++ {
			line = append(line, b.grid.At(col, row))
		}
	case Up, Down:
		row := p.Row - distance
		if dir == Down {
			row = p.Row + p.Height - 1 + distance
		}
		if row < 0 || row >= b.height {
			return nil, false
		}
		line = make([]PieceID, 0, p.Width)
		for col := p.Col; col < p.Col+p.Width; col++ {
			line = append(line, b.grid.At(col, row))
		}
	default:
		return nil, false
	}
	return line, true
}

// blockers lists the distinct pieces in the strip directly against the
// piece's leading edge, in scan order.
func (b *Board) blockers(p *Piece, dir Direction) []PieceID {
	line, ok := b.leadingLine(p, dir, 1)
	if !ok {
		return nil
	}
	var result []PieceID
	for _, id := range line {
		if id == NoPiece || id == p.ID || containsPiece(result, id) {
			continue
		}
		result = append(result, id)
	}
	return result
}

// ChainStepCount returns how far the group of pieces can advance together in
// the direction. With push enabled a blocked piece borrows the distance its
// blockers could travel, recursively. Every piece touched on the way is
// recorded in the returned map with the final chain minimum.
//
// A pushing piece wider than its blockers may sweep cells no blocker covers,
// so the result is also capped by each member's free run through cells that
// are empty or held by the chain itself.
func (b *Board) ChainStepCount(ids []PieceID, dir Direction, push bool) (int, StepMap, error) {
	if dir < Left || dir > Down {
		return 0, nil, ErrInvalidDirection
	}
	group := make([]*Piece, 0, len(ids))
	for _, id := range ids {
		p, err := b.lookup(id)
		if err != nil {
			return 0, nil, err
		}
		group = append(group, p)
	}

	touched := make(map[PieceID]struct{})
	steps := b.chainSteps(group, dir, push, touched)
	if steps > 0 && len(touched) > len(group) {
		for id := range touched {
			p, _ := b.index.Get(id)
			if run := b.freeRun(p, dir, touched); run < steps {
				steps = run
			}
		}
	}

	result := make(StepMap, len(touched))
	for id := range touched {
		result[id] = steps
	}
	return steps, result, nil
}

// chainSteps is the recursive part of ChainStepCount. Recursion only follows
// pieces strictly beyond the current frontier, so it always terminates.
func (b *Board) chainSteps(group []*Piece, dir Direction, push bool, touched map[PieceID]struct{}) int {
	if len(group) == 0 {
		return 0
	}
	minSteps := -1
	for _, p := range group {
		touched[p.ID] = struct{}{}
		steps := b.singleSteps(p, dir)
		if steps == 0 && push {
			next := b.blockers(p, dir)
			nextGroup := make([]*Piece, 0, len(next))
			for _, id := range next {
				blocker, _ := b.index.Get(id)
				nextGroup = append(nextGroup, blocker)
			}
			steps = b.chainSteps(nextGroup, dir, push, touched)
		}
		if minSteps == -1 || steps < minSteps {
			minSteps = steps
		}
	}
	return minSteps
}

// PossibleMoves lists every piece and direction with a nonzero chain step count
func (b *Board) PossibleMoves(push bool) []MoveOption {
	var options []MoveOption
	for _, p := range b.pieces {
		for _, dir := range Directions {
			steps, touched, err := b.ChainStepCount([]PieceID{p.ID}, dir, push)
			if err != nil || steps == 0 {
				continue
			}
			option := MoveOption{PieceID: p.ID, Direction: dir.String(), MaxSteps: steps}
			for _, other := range b.pieces {
				if _, ok := touched[other.ID]; ok && other.ID != p.ID {
					option.Pushes = append(option.Pushes, other.ID)
				}
			}
			options = append(options, option)
		}
	}
	return options
}

func containsPiece(ids []PieceID, id PieceID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
