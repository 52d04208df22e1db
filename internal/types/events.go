// Package types contains shared type definitions used across multiple packages
package types

import "time"

// EventID identifies a known promotional event published by the remote service
type EventID string

// Known promotional events
const (
	EventBikeRide   EventID = "event_bike_ride_3d"
	EventTrainMiner EventID = "event_train_miner"
	EventMergeGame  EventID = "event_merge_game"
	EventCubeGame   EventID = "event_cube_game"
)

// EventConfig holds the fixed parameters of a promotional event
type EventConfig struct {
	// AppToken identifies the partner application to the remote service
	AppToken string `json:"app_token"`

	// Cooldown is the minimum pause between attempts for this event
	Cooldown time.Duration `json:"cooldown"`
}

// Events maps each known promotional event to its fixed parameters. Lookups
// against this table replace per-event branching in the control loop.
var Events = map[EventID]EventConfig{
	EventBikeRide:   {AppToken: "d28721be-fd2d-4b45-869e-9f253b554e50", Cooldown: 3 * time.Hour},
	EventTrainMiner: {AppToken: "82647f43-3f87-402d-88dd-09a90025313f", Cooldown: 2 * time.Hour},
	EventMergeGame:  {AppToken: "8d1cc2ad-e097-4b86-90ef-7a27e19fb833", Cooldown: 2 * time.Hour},
	EventCubeGame:   {AppToken: "d1690a07-3780-4068-810f-9b5bbf2931b2", Cooldown: 4 * time.Hour},
}

// Lookup returns the configuration for a promotional event and whether the
// event is known.
func Lookup(id EventID) (EventConfig, bool) {
	cfg, ok := Events[id]
	return cfg, ok
}
