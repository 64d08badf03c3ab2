package domain

import (
	"time"
)

// Club identifies the club used for an approach shot. ClubLost is a
// sentinel recorded when the ball was lost rather than struck again.
type Club string

const (
	ClubDriver Club = "driver"
	Club3Wood  Club = "3w"
	Club5Wood  Club = "5w"
	ClubHybrid Club = "hybrid"
	Club3Iron  Club = "3i"
	Club4Iron  Club = "4i"
	Club5Iron  Club = "5i"
	Club6Iron  Club = "6i"
	Club7Iron  Club = "7i"
	Club8Iron  Club = "8i"
	Club9Iron  Club = "9i"
	ClubPW     Club = "pw"
	ClubGW     Club = "gw"
	ClubSW     Club = "sw"
	ClubLW     Club = "lw"
	ClubPutter Club = "putter"
	ClubLost   Club = "lost"
)

var validClubs = map[Club]struct{}{
	ClubDriver: {}, Club3Wood: {}, Club5Wood: {}, ClubHybrid: {},
	Club3Iron: {}, Club4Iron: {}, Club5Iron: {}, Club6Iron: {},
	Club7Iron: {}, Club8Iron: {}, Club9Iron: {},
	ClubPW: {}, ClubGW: {}, ClubSW: {}, ClubLW: {},
	ClubPutter: {}, ClubLost: {},
}

func (c Club) Valid() bool {
	_, ok := validClubs[c]
	return ok
}

// GeoLocation is a WGS 84 coordinate. Used both for live sensor readings
// and for static catalog reference points (tee boxes, green centers).
type GeoLocation struct {
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Accuracy *float64 `json:"accuracy,omitempty"` // meters
}

// ShotDetail records one approach shot: the club, when it was taken, where
// the ball ended up, and the distance from the previous reference point.
type ShotDetail struct {
	ID        string       `json:"id"`
	Club      Club         `json:"club"`
	Timestamp time.Time    `json:"timestamp"`
	Location  *GeoLocation `json:"location,omitempty"`
	Distance  *int         `json:"distance,omitempty"` // yards
}

// HoleScore holds the strokes recorded on one hole of a round. Shots is
// append-ordered; after decrements its length can drift from ApproachShots.
type HoleScore struct {
	HoleNumber    int          `json:"holeNumber"`
	ApproachShots int          `json:"approachShots"`
	Putts         int          `json:"putts"`
	Shots         []ShotDetail `json:"shots,omitempty"`
	TeeLocation   *GeoLocation `json:"teeLocation,omitempty"` // first-write-wins
}

func (h *HoleScore) Clone() *HoleScore {
	if h == nil {
		return nil
	}
	c := *h
	if h.Shots != nil {
		c.Shots = make([]ShotDetail, len(h.Shots))
		copy(c.Shots, h.Shots)
	}
	if h.TeeLocation != nil {
		loc := *h.TeeLocation
		c.TeeLocation = &loc
	}
	return &c
}

// Round is one playthrough of the course. Scores is sparse: only holes with
// recorded activity have an entry. CurrentHoleIndex is a position in the
// catalog ordering, not a hole number.
type Round struct {
	ID                 string             `json:"id"` // dd-mm-yyyy, -N suffixed for same-day rounds
	Date               time.Time          `json:"date"`
	Scores             map[int]*HoleScore `json:"scores"`
	CurrentHoleIndex   int                `json:"currentHoleIndex"`
	StartingHoleNumber int                `json:"startingHoleNumber"`
	IsFinished         bool               `json:"isFinished"`
}

func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Scores = make(map[int]*HoleScore, len(r.Scores))
	for n, s := range r.Scores {
		c.Scores[n] = s.Clone()
	}
	return &c
}

// RoundMetadata is the list-view snapshot of a round.
type RoundMetadata struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	TotalScore int       `json:"totalScore"`
	IsComplete bool      `json:"isComplete"`
}
