package queue

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/deckbox/internal/domain/track"
)

func tracks(ids ...string) []track.Track {
	result := make([]track.Track, len(ids))
	for i, id := range ids {
		result[i] = track.Track{ID: id, Title: "Song " + id, Duration: time.Minute}
	}
	return result
}

func TestQueue_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty queue",
			tracks:   nil,
			expected: []string{},
		},
		{
			name:     "single track",
			tracks:   tracks("a"),
			expected: []string{"a"},
		},
		{
			name:     "multiple tracks",
			tracks:   tracks("a", "b", "c"),
			expected: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(tt.tracks...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q.TrackIDs())
			assert.Equal(t, len(tt.expected), q.Len())
		})
	}
}

func TestQueue_TotalDuration(t *testing.T) {
	q, err := New(tracks("a", "b", "c")...)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, q.TotalDuration())
	assert.Equal(t, time.Duration(0), Queue{}.TotalDuration())
}

func TestQueue_Insert(t *testing.T) {
	base, err := New(tracks("a", "b")...)
	require.NoError(t, err)

	tests := []struct {
		name     string
		pos      int
		insert   []track.Track
		expected []string
		wantErr  error
	}{
		{
			name:     "insert at start",
			pos:      0,
			insert:   tracks("x"),
			expected: []string{"x", "a", "b"},
		},
		{
			name:     "insert in middle",
			pos:      1,
			insert:   tracks("x", "y"),
			expected: []string{"a", "x", "y", "b"},
		},
		{
			name:     "insert at end",
			pos:      2,
			insert:   tracks("x"),
			expected: []string{"a", "b", "x"},
		},
		{
			name:    "duplicate of existing",
			pos:     0,
			insert:  tracks("b"),
			wantErr: ErrDuplicateTrack,
		},
		{
			name:    "duplicate within inserted",
			pos:     0,
			insert:  tracks("x", "x"),
			wantErr: ErrDuplicateTrack,
		},
		{
			name:    "position out of range",
			pos:     3,
			insert:  tracks("x"),
			wantErr: ErrInvalidIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := base.Insert(tt.pos, tt.insert...)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Equal(t, base.TrackIDs(), q.TrackIDs())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q.TrackIDs())
			// receiver is untouched
			assert.Equal(t, []string{"a", "b"}, base.TrackIDs())
		})
	}
}

func TestQueue_Remove(t *testing.T) {
	base, err := New(tracks("a", "b", "c")...)
	require.NoError(t, err)

	q, pos, err := base.Remove("b")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"a", "c"}, q.TrackIDs())
	assert.Equal(t, []string{"a", "b", "c"}, base.TrackIDs())

	_, pos, err = base.Remove("missing")
	assert.True(t, errors.Is(err, ErrTrackNotFound))
	assert.Equal(t, -1, pos)

	_, err = base.RemoveAt(5)
	assert.True(t, errors.Is(err, ErrInvalidIndex))
}

func TestQueue_At(t *testing.T) {
	q, err := New(tracks("a", "b")...)
	require.NoError(t, err)

	got, ok := q.At(1)
	assert.True(t, ok)
	assert.Equal(t, "b", got.ID)

	_, ok = q.At(-1)
	assert.False(t, ok)
	_, ok = q.At(2)
	assert.False(t, ok)
	assert.True(t, q.Contains("a"))
	assert.False(t, q.Contains("z"))
}
