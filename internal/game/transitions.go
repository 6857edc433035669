package game

var roundTransitions = map[RoundStatus][]RoundStatus{
	RoundProposed:   {RoundApproved, RoundSkipped},
	RoundSkipped:    {RoundProposed},
	RoundApproved:   {RoundCollecting},
	RoundCollecting: {RoundRevealed},
	RoundRevealed:   {RoundScored},
}

var gameTransitions = map[GameStatus][]GameStatus{
	StatusLobby:      {StatusInProgress},
	StatusInProgress: {StatusComplete},
	StatusComplete:   {StatusLobby},
}

func canAdvanceRound(from, to RoundStatus) bool {
	for _, next := range roundTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func canAdvanceGame(from, to GameStatus) bool {
	for _, next := range gameTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func requireRound(round Round, to RoundStatus) error {
	if !canAdvanceRound(round.Status, to) {
		return invalid("round %d is %s, cannot move to %s", round.Number, round.Status, to)
	}
	return nil
}

func requireGame(game Game, to GameStatus) error {
	if !canAdvanceGame(game.Status, to) {
		return invalid("game is %s, cannot move to %s", game.Status, to)
	}
	return nil
}
