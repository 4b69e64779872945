// Package errors provides structured error handling for the coordinator.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input validation errors
	CodeWalletRequired   Code = "WALLET_REQUIRED"
	CodeRoomRequired     Code = "ROOM_REQUIRED"
	CodeShipCountInvalid Code = "SHIP_COUNT_INVALID"
	CodeBoardInvalid     Code = "BOARD_INVALID"
	CodeCellAlreadyFired Code = "CELL_ALREADY_FIRED"
	CodePhaseDisallowsOp Code = "PHASE_DISALLOWS_OPERATION"

	// Ledger errors
	CodeGameNotFound       Code = "GAME_NOT_FOUND"
	CodeGameStatusInvalid  Code = "GAME_STATUS_INVALID"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodeSelfPlay           Code = "SELF_PLAY"
	CodeCellOutOfBounds    Code = "CELL_OUT_OF_BOUNDS"
	CodeCommitmentRepeated Code = "COMMITMENT_ALREADY_SUBMITTED"
	CodeShotNotFound       Code = "SHOT_NOT_FOUND"
	CodeProofReplayed      Code = "PROOF_ALREADY_SUBMITTED"
	CodeNotAuthorized      Code = "NOT_AUTHORIZED"

	// Liveness errors
	CodeProofTimeout    Code = "PROOF_TIMEOUT"
	CodeOpponentTimeout Code = "OPPONENT_TIMEOUT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
