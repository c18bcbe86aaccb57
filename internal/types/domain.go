package types

import (
	"time"
)

// Location represents a geographic coordinate with an optional display name.
type Location struct {
	Lat         float64 `json:"lat" validate:"latitude"`
	Lon         float64 `json:"lon" validate:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Waypoint is a bookmarked location saved by the rider for trip planning.
type Waypoint struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Location  Location  `json:"location" db:"-"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Route is an ordered list of waypoints. DistanceMeters and Waypoints are
// hydrated by the trips service and are not stored.
type Route struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	WaypointIDs []string  `json:"waypoint_ids" db:"waypoint_ids"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Hydrated Fields (not in DB table)
	Waypoints      []*Waypoint `json:"waypoints,omitempty" db:"-"`
	DistanceMeters float64     `json:"distance_meters" db:"-"`
	DistanceLabel  string      `json:"distance_label,omitempty" db:"-"`
}

// Place is a point of interest returned by the places provider. Distance is
// computed against a reference point and is recomputed whenever that point
// changes.
type Place struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Category       PlaceCategory `json:"category"`
	Location       Location      `json:"location"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
	DistanceLabel  string        `json:"distance_label,omitempty"`

	// Enrichment (details lookups only)
	Address     string        `json:"address,omitempty"`
	Phone       string        `json:"phone,omitempty"`
	Website     string        `json:"website,omitempty"`
	Hours       []string      `json:"hours,omitempty"`
	OpenNow     *bool         `json:"open_now,omitempty"`
	Rating      *float64      `json:"rating,omitempty"`
	Photos      []string      `json:"photos,omitempty"`
	Reviews     []PlaceReview `json:"reviews,omitempty"`
	Description string        `json:"description,omitempty"`
}

// PlaceReview is a single user review attached to a place.
type PlaceReview struct {
	Author string    `json:"author"`
	Rating int       `json:"rating"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// Position is the most recent fix reported by the rider's tracker.
type Position struct {
	Location   Location  `json:"location"`
	SpeedKmh   *float64  `json:"speed_kmh,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
