package music_test

import (
	"testing"
	"time"

	"github.com/rapidmidiex/gopiano/music"
	"github.com/stretchr/testify/require"
)

func TestParseNote(t *testing.T) {
	t.Run("parses naturals, sharps and flats", func(t *testing.T) {
		cases := []struct {
			in       string
			wantMIDI int
		}{
			{"C-4", 60},
			{"C#-4", 61},
			{"Db-4", 61},
			{"A-0", 21},
			{"C-8", 108},
			{"Bb-2", 46},
			{"F##-3", 55}, // double sharp lands on G
		}
		for _, c := range cases {
			n, err := music.ParseNote(c.in)
			require.NoError(t, err, c.in)
			got, err := n.MIDI()
			require.NoError(t, err)
			require.Equal(t, c.wantMIDI, got, c.in)
		}
	})

	t.Run("rejects malformed notes", func(t *testing.T) {
		for _, in := range []string{"", "C", "C4", "H-4", "C%-4", "C-x"} {
			_, err := music.ParseNote(in)
			require.Error(t, err, in)
		}
	})
}

func TestFromMIDI(t *testing.T) {
	n, err := music.FromMIDI(61)
	require.NoError(t, err)
	require.Equal(t, "C#-4", n.String())

	n, err = music.FromMIDI(21)
	require.NoError(t, err)
	require.Equal(t, "A-0", n.String())

	for _, midi := range []int{-1, 128} {
		_, err := music.FromMIDI(midi)
		require.Error(t, err)
	}
}

func TestNoteEvents(t *testing.T) {
	n := music.MustNote("A-4")
	events := n.Events(120)
	require.Len(t, events, 1)
	require.Equal(t, 69, events[0].Key)
	require.Equal(t, music.DefaultVelocity, events[0].Velocity)
	// A quarter note at 120 bpm is half a second.
	require.Equal(t, 500*time.Millisecond, events[0].Duration)
}

func TestChord(t *testing.T) {
	cmaj := music.Chord{
		music.MustNote("C-4"),
		music.MustNote("E-4"),
		music.MustNote("G-4"),
	}

	require.Equal(t, []string{"C-4", "E-4", "G-4"}, cmaj.NoteNames())

	events := cmaj.Events(120)
	require.Len(t, events, 3)
	for _, ev := range events {
		require.Zero(t, ev.Start, "chord notes are struck together")
	}
}

func TestBarPlace(t *testing.T) {
	t.Run("rejects notes past the bar capacity", func(t *testing.T) {
		b := music.NewBar(music.Meter{4, 4})
		for i := 0; i < 4; i++ {
			require.NoError(t, b.Place(music.Quarter, music.MustNote("C-4")))
		}
		require.True(t, b.Full())
		require.Error(t, b.Place(music.Quarter, music.MustNote("D-4")))
	})

	t.Run("sequences placed notes", func(t *testing.T) {
		b := music.NewBar(music.Meter{})
		require.NoError(t, b.Place(music.Half, music.MustNote("C-4")))
		require.NoError(t, b.Place(music.Quarter, music.MustNote("E-4")))

		events := b.Events(60) // quarter = 1s
		require.Len(t, events, 2)
		require.Equal(t, time.Duration(0), events[0].Start)
		require.Equal(t, 2*time.Second, events[0].Duration)
		require.Equal(t, 2*time.Second, events[1].Start)
		require.Equal(t, time.Second, events[1].Duration)
	})

	t.Run("rests advance without sounding", func(t *testing.T) {
		b := music.NewBar(music.Meter{})
		require.NoError(t, b.Rest(music.Half))
		require.NoError(t, b.Place(music.Quarter, music.MustNote("G-4")))

		events := b.Events(60)
		require.Len(t, events, 1)
		require.Equal(t, 2*time.Second, events[0].Start)
	})
}

func TestTrack(t *testing.T) {
	first := music.NewBar(music.Meter{})
	require.NoError(t, first.Place(music.Whole, music.MustNote("C-4")))

	second := music.NewBar(music.Meter{})
	require.NoError(t, second.Place(music.Whole, music.MustNote("F-4")))

	track := &music.Track{}
	track.Add(first)
	track.Add(second)

	events := track.Events(60)
	require.Len(t, events, 2)
	// Second bar starts a full 4/4 bar (4s at 60 bpm) after the first.
	require.Equal(t, 4*time.Second, events[1].Start)

	require.Equal(t, []string{"C-4", "F-4"}, track.NoteNames())
	require.Equal(t, 8*time.Second, music.Span(track, 60))
}
