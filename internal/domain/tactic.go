package domain

import "time"

// Position is a single player slot of a tactic, placed on the pitch in
// percentage coordinates.
type Position struct {
	ID    string  `json:"id" validate:"required"`
	X     float64 `json:"x" validate:"gte=0,lte=100"`
	Y     float64 `json:"y" validate:"gte=0,lte=100"`
	Role  string  `json:"role"`
	Focus string  `json:"focus"`
}

// Tactic represents a single recorded team setup
type Tactic struct {
	ID                string     `json:"id" validate:"required"`
	CreatedAt         time.Time  `json:"created_at"`
	TacticName        string     `json:"tactic_name" validate:"required"`
	Description       string     `json:"description"`
	FormationID       string     `json:"formation_id"`
	Positions         []Position `json:"position_id" validate:"dive"`
	FocusIDs          []string   `json:"focuses_id"`
	RoleIDs           []string   `json:"role_id"`
	BuildUpStyle      string     `json:"build_up_style"`
	DefensiveApproach string     `json:"defensive_approach"`
	ShareCode         string     `json:"share_code"`
	Tags              []string   `json:"tags"`
	Club              string     `json:"club"`
	Season            string     `json:"season"`
	Verified          bool       `json:"verified"`
	Manager           string     `json:"manager,omitempty"`
	Year              string     `json:"year,omitempty"`
	ClubCountry       string     `json:"clubcountry,omitempty"`
	League            string     `json:"league,omitempty"`
	TacticalPreset    string     `json:"tacticalpreset,omitempty"`
	Notes             string     `json:"notes,omitempty"`
}

// HasTag reports whether the tactic carries the given tag
func (t *Tactic) HasTag(tag string) bool {
	for _, tt := range t.Tags {
		if tt == tag {
			return true
		}
	}
	return false
}

// DisplayPositions returns the tactic's own positions, or the default
// layout when it has none.
func (t *Tactic) DisplayPositions() []Position {
	if len(t.Positions) > 0 {
		return t.Positions
	}
	return DefaultPositions()
}

// MatchedTactic is a tactic annotated with how well it fits a playlist
type MatchedTactic struct {
	Tactic
	MatchCount     int  `json:"matchCount"`
	IsPerfectMatch bool `json:"isPerfectMatch"`
}
