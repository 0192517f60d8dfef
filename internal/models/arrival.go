package models

import "time"

// Arrival is an upcoming vehicle at a stop, derived from a real-time trip update.
type Arrival struct {
	Network      string `json:"network"`
	TripID       string `json:"tripId"`
	RouteID      string `json:"routeId"`
	StopID       string `json:"stopId"`
	ArrivalTime  int64  `json:"arrivalTime"`
	SecondsAway  int64  `json:"secondsAway"`
	DelaySeconds *int64 `json:"delaySeconds,omitempty"`
	ReadableTime string `json:"readableTime"`
}

// NewArrival builds an Arrival for the given time relative to now.
func NewArrival(network, tripID, routeID, stopID string, at, now time.Time, delay *time.Duration) Arrival {
	a := Arrival{
		Network:      network,
		TripID:       tripID,
		RouteID:      routeID,
		StopID:       stopID,
		ArrivalTime:  at.UnixMilli(),
		SecondsAway:  int64(at.Sub(now) / time.Second),
		ReadableTime: at.Format(time.RFC3339),
	}
	if delay != nil {
		d := int64(*delay / time.Second)
		a.DelaySeconds = &d
	}
	return a
}

// StopArrivals is the arrivals board for one resolved stop.
type StopArrivals struct {
	Stop     Stop      `json:"stop"`
	Arrivals []Arrival `json:"arrivals"`
}
