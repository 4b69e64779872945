package app

import "time"

const (
	defaultRoomPollInterval   = 2 * time.Second
	defaultLedgerPollInterval = 3 * time.Second
	defaultGameIDPollInterval = 1 * time.Second
	defaultGameIDPollAttempts = 60
	defaultLobbyPollInterval  = 10 * time.Second
	defaultProofTimeout       = 30 * time.Second
)

// Config holds the session runtime configuration. Zero values take the
// production defaults; tests shrink the intervals.
type Config struct {
	// Player is the wallet address this session signs with.
	Player string

	// RoomPollInterval paces the shared room record poll.
	RoomPollInterval time.Duration
	// LedgerPollInterval paces the on-chain game state poll.
	LedgerPollInterval time.Duration
	// GameIDPollInterval paces the joiner's wait for the host's game id.
	GameIDPollInterval time.Duration
	// GameIDPollAttempts bounds that wait before giving up.
	GameIDPollAttempts int
	// LobbyPollInterval paces the open-game listing refresh.
	LobbyPollInterval time.Duration
	// ProofTimeout bounds the wait for the opponent's hit proof.
	ProofTimeout time.Duration
}

func (c Config) normalized() Config {
	if c.RoomPollInterval <= 0 {
		c.RoomPollInterval = defaultRoomPollInterval
	}
	if c.LedgerPollInterval <= 0 {
		c.LedgerPollInterval = defaultLedgerPollInterval
	}
	if c.GameIDPollInterval <= 0 {
		c.GameIDPollInterval = defaultGameIDPollInterval
	}
	if c.GameIDPollAttempts <= 0 {
		c.GameIDPollAttempts = defaultGameIDPollAttempts
	}
	if c.LobbyPollInterval <= 0 {
		c.LobbyPollInterval = defaultLobbyPollInterval
	}
	if c.ProofTimeout <= 0 {
		c.ProofTimeout = defaultProofTimeout
	}
	return c
}
