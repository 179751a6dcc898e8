package domain

// DefaultPositions returns the layout drawn for a tactic that stores no
// positions of its own.
func DefaultPositions() []Position {
	return []Position{
		{ID: "Goalkeeper (GK)", X: 50, Y: 10},
		{ID: "Left Center Back (LCB)", X: 35, Y: 30},
		{ID: "Right Center Back (RCB)", X: 65, Y: 30},
		{ID: "Left Central Midfielder (LCM)", X: 35, Y: 60},
		{ID: "Central Midfielder (CM)", X: 50, Y: 50},
		{ID: "Right Central Midfielder (RCM)", X: 65, Y: 60},
		{ID: "Left Winger (LW)", X: 20, Y: 80},
		{ID: "Striker (ST)", X: 50, Y: 85},
		{ID: "Right Winger (RW)", X: 80, Y: 80},
	}
}
