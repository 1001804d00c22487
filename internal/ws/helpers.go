package ws

import "time"

func durationMillis(s *Session) int64 {
	return time.Since(s.ConnectedAt).Milliseconds()
}
