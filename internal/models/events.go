package models

type EventName string

const (
	// EventRoomsChanged is raised after a mutation in this process.
	EventRoomsChanged EventName = "rooms:changed"
	// EventRoomsSynced is raised when a change made by another process
	// arrives over the cross-process bridge.
	EventRoomsSynced EventName = "rooms:synced"
)

// Event announces that the persisted room collection changed. Observers
// respond by reloading the whole collection; the event carries no delta.
type Event struct {
	Name   EventName `json:"name"`
	Origin string    `json:"origin"`
}
