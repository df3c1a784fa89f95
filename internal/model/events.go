package model

// EventName identifies a push event from the service
type EventName string

const (
	// EventStateUpdate carries a full GameState snapshot
	EventStateUpdate EventName = "gameStateUpdate"
	// EventWinner announces that the pot was awarded
	EventWinner EventName = "winner"
	// EventUserCount carries the number of connected users
	EventUserCount EventName = "userCountUpdate"
	// EventConnected is sent by the SSE endpoint when a stream opens
	EventConnected EventName = "connected"
)
