package service

import "time"

func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}
