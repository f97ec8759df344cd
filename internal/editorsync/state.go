package editorsync

type State int

const (
	// StateIdle: no note is open.
	StateIdle State = iota
	StateLoading
	// StateLocalAhead: the cache holds edits the server has not seen.
	StateLocalAhead
	// StateServerAhead: the server copy is newer and the cache has not caught up.
	StateServerAhead
	StateSynced
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLocalAhead:
		return "local-ahead"
	case StateServerAhead:
		return "server-ahead"
	case StateSynced:
		return "synced"
	case StateSaving:
		return "saving"
	}
	return "unknown"
}
