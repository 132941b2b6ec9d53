package components

// String returns the display name for a Task.
func (t Task) String() string {
	names := TaskNames()
	if int(t) < len(names) {
		return names[t]
	}
	return "Unknown"
}

// TaskNames returns the display names for all tasks.
// The order matches the Task constants.
func TaskNames() []string {
	return []string{"CollectNectar", "ReturnToHive", "ReturnToBed", "OrientToSleep", "Sleep"}
}

// String returns the display name for an EliminationCause.
func (c EliminationCause) String() string {
	names := CauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "Unknown"
}

// CauseNames returns the display names for all elimination causes.
// The order matches the EliminationCause constants.
func CauseNames() []string {
	return []string{"None", "Collided", "Stalled"}
}
