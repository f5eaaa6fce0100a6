package logger

import "time"

// Timer reports how long a named operation took when End is called.
type Timer struct {
	StartTime time.Time
	Name      string
	Console   *Console
}

// End logs the elapsed time (rounded for display) and returns the exact value.
func (t *Timer) End() time.Duration {
	duration := time.Since(t.StartTime)
	t.Console.Info("%s completed in %v", t.Name, duration.Round(time.Millisecond))
	return duration
}
