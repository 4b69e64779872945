// Package shot defines the shot records shared by the session state machine,
// the room record, and the ledger view.
package shot

// Role identifies which side of the match a session plays.
type Role string

const (
	RoleHost   Role = "host"
	RoleJoiner Role = "joiner"
)

// Valid reports whether the role is one of the two match roles.
func (r Role) Valid() bool {
	return r == RoleHost || r == RoleJoiner
}

// Opponent returns the other role.
func (r Role) Opponent() Role {
	if r == RoleHost {
		return RoleJoiner
	}
	return RoleHost
}

// Result is the resolution state of a fired shot.
type Result string

const (
	ResultPending Result = "pending"
	ResultHit     Result = "hit"
	ResultMiss    Result = "miss"
)

// FromBit maps the wire encoding (0=miss, 1=hit) to a Result.
func FromBit(bit int) Result {
	if bit == 1 {
		return ResultHit
	}
	return ResultMiss
}

// Shot is one fired shot as tracked by a session. Index is the dense
// per-attacker sequence number used to match a later proof to this shot.
type Shot struct {
	Row    int
	Col    int
	Index  int
	Result Result
}

// Record is a shot as stored in the shared room record. Result is nil until
// the defender publishes the proof outcome (0=miss, 1=hit).
type Record struct {
	FromRole Role `json:"fromRole"`
	Row      int  `json:"row"`
	Col      int  `json:"col"`
	Index    int  `json:"shotIndex"`
	Result   *int `json:"result,omitempty"`
}
