package room

import "time"

// scheduleForceFinish arms a one-shot watcher that forces unfinished
// members to a zero result once the bound elapses. The watcher carries only
// the room id and holds no lock or transaction across the wait; on firing
// it opens a fresh transaction. Watchers are fire-and-forget: the zero-fill
// is idempotent and a no-op if the room already dissolved or was deleted,
// so cancellation is never needed.
func (s *RoomService) scheduleForceFinish(roomId int, after time.Duration) {
	time.AfterFunc(after, func() {
		s.forceFinish(roomId)
	})
}

func (s *RoomService) forceFinish(roomId int) {
	n, err := s.db.ZeroUnsetScores(roomId)
	if err != nil {
		s.log.Printf("force finish room %d: %v", roomId, err)
		return
	}

	if n > 0 {
		s.stats.Incr(metricTimeoutsFired)
		s.log.Printf("room %d timed out, zeroed %d unfinished members", roomId, n)
	}
}
