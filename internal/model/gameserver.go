package model

// GameServerRecord is a persisted id <-> hex id binding.
type GameServerRecord struct {
	ID    int
	HexID []byte
	Host  string
}
