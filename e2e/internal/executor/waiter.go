package executor

import "time"

// scaledOffset converts scenario seconds to wall time under a time scale
func scaledOffset(seconds, timeScale int) time.Duration {
	if timeScale < 1 {
		timeScale = 1
	}
	return time.Duration(seconds) * time.Second / time.Duration(timeScale)
}

// WaitUntil sleeps until targetSeconds after start, scaled by timeScale
func WaitUntil(start time.Time, targetSeconds, timeScale int) {
	target := start.Add(scaledOffset(targetSeconds, timeScale))
	if d := time.Until(target); d > 0 {
		time.Sleep(d)
	}
}

// GetElapsed returns elapsed seconds since start
func GetElapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
