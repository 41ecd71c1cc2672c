package store

// Account is one ledger account. Balance is in minor currency units and is
// never negative at a durable commit point (enforced by a CHECK constraint).
type Account struct {
	ID      int64
	Name    string
	Balance int64
}

// SystemAccountID is the counterparty recorded for interest credits.
const SystemAccountID = 0

// LogEntry records one completed transfer. TS is nanoseconds since the Unix
// epoch. ScopeToken identifies the transactional scope that committed it.
type LogEntry struct {
	ID         int64
	FromID     int64
	ToID       int64
	Amount     int64
	TS         int64
	ScopeToken string
}

// Event is an arbitrary recorded event. UserID and SessionID are optional;
// when present they round-trip bit-exactly across the full int64 range.
type Event struct {
	ID          int64
	Type        string
	TimestampNS int64
	UserID      *int64
	SessionID   *int64
}
