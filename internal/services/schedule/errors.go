package schedule

// ScheduleError represents window configuration errors
type ScheduleError string

// Error implements the error interface
func (e ScheduleError) Error() string {
	return string(e)
}

const (
	ErrNilConfig           ScheduleError = "config cannot be nil"
	ErrToleranceBelowTick  ScheduleError = "window tolerance is shorter than the tick interval"
	ErrNonPositiveTick     ScheduleError = "tick interval must be positive"
	ErrNonPositiveLead     ScheduleError = "invite lead must be positive"
	ErrNegativeDelay       ScheduleError = "feedback delay cannot be negative"
	ErrOverlappingReminder ScheduleError = "reminder windows overlap"
)
