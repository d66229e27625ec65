package playback

import (
	"github.com/osa030/deckbox/internal/domain/queue"
	"github.com/osa030/deckbox/internal/domain/track"
)

// insertTracks inserts before pos (negative appends). The index follows the
// current track when the insertion lands at or before it.
func insertTracks(s *State, pos int, tracks []track.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	if pos < 0 {
		pos = s.Queue.Len()
	}

	wasEmpty := s.Queue.IsEmpty()
	q, err := s.Queue.Insert(pos, tracks...)
	if err != nil {
		return err
	}
	s.Queue = q

	if !wasEmpty && pos <= s.CurrentIndex {
		s.CurrentIndex += len(tracks)
	}
	return nil
}

// removeTrack removes a track by ID and re-derives the current index so it
// keeps referencing the same logical track, or the one after a removed
// current track.
func removeTrack(s *State, id string) ([]Command, error) {
	q, pos, err := s.Queue.Remove(id)
	if err != nil {
		return nil, err
	}
	delete(s.LikedIDs, id)
	s.Queue = q

	if q.IsEmpty() {
		return resetEmpty(s), nil
	}

	var cmds []Command
	switch {
	case pos == s.CurrentIndex:
		cmds = stopAndDetach(s)
		if pos >= q.Len() {
			s.CurrentIndex = 0
		}
		// otherwise the same index now holds the following track
	case pos < s.CurrentIndex:
		s.CurrentIndex--
	}
	return cmds, nil
}

// replaceQueue swaps the queue and relocates the current track by ID.
func replaceQueue(s *State, tracks []track.Track) ([]Command, error) {
	q, err := queue.New(tracks...)
	if err != nil {
		return nil, err
	}

	current, hadCurrent := s.CurrentTrack()
	for id := range s.LikedIDs {
		if !q.Contains(id) {
			delete(s.LikedIDs, id)
		}
	}
	s.Queue = q

	if q.IsEmpty() {
		return resetEmpty(s), nil
	}
	if !hadCurrent {
		s.CurrentIndex = 0
		return nil, nil
	}
	if idx := q.IndexOf(current.ID); idx >= 0 {
		s.CurrentIndex = idx
		return nil, nil
	}

	// current track vanished: same handling as removing it
	cmds := stopAndDetach(s)
	if s.CurrentIndex >= q.Len() {
		s.CurrentIndex = 0
	}
	return cmds, nil
}

// resetEmpty puts s in the default empty state. User preferences (volume,
// mute, shuffle, repeat) survive.
func resetEmpty(s *State) []Command {
	cmds := stopAndDetach(s)
	s.CurrentIndex = 0
	return cmds
}

func stopAndDetach(s *State) []Command {
	s.IsPlaying = false
	s.CurrentTime = 0
	s.Duration = 0
	if s.Loaded.IsZero() {
		return nil
	}
	s.Loaded = Source{}
	return []Command{unloadCmd()}
}
