package session

// Phase is the single lifecycle value that drives which actions are legal and
// what the UI renders. Exactly one phase holds at a time.
type Phase string

const (
	// PhaseIdle is the initial phase before any create or join action.
	PhaseIdle Phase = "idle"
	// PhaseLobby covers room discovery and the joiner's wait for a game id.
	PhaseLobby Phase = "lobby"
	// PhaseWaitingJoiner is the host waiting for an opponent to join.
	PhaseWaitingJoiner Phase = "waiting_joiner"
	// PhasePlacement is ship placement before board submission.
	PhasePlacement Phase = "placement"
	// PhaseProving covers board proof generation and commitment submission.
	PhaseProving Phase = "proving"
	// PhaseWaitingOpponent is the wait for the opponent's commitment.
	PhaseWaitingOpponent Phase = "waiting_opponent"
	// PhaseActive means the player may fire.
	PhaseActive Phase = "active"
	// PhaseWaitingProof means the player fired and awaits the opponent's proof.
	PhaseWaitingProof Phase = "waiting_proof"
	// PhaseGameOver is terminal except for an explicit reset.
	PhaseGameOver Phase = "game_over"
)

// Winner records which side won once the game is over.
type Winner string

const (
	WinnerNone     Winner = ""
	WinnerMe       Winner = "me"
	WinnerOpponent Winner = "opponent"
)
