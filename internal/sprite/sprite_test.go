package sprite

import (
	"testing"
	"time"

	"github.com/moorebrett0/tamapet/internal/pet"
)

func TestEveryActionHasFrames(t *testing.T) {
	actions := []pet.Action{pet.ActionIdle, pet.ActionWalk, pet.ActionEat, pet.ActionSleep, pet.ActionPlay}
	moods := []pet.Mood{pet.MoodHappy, pet.MoodNeutral, pet.MoodSad}
	for _, a := range actions {
		sh := Registry[a]
		if sh == nil {
			t.Fatalf("no sheet for %s", a)
		}
		if sh.FrameDuration <= 0 {
			t.Errorf("%s: frame duration %v", a, sh.FrameDuration)
		}
		for _, m := range moods {
			if len(sh.Frames[m]) == 0 {
				t.Errorf("%s/%s: no frames", a, m)
			}
		}
	}
}

func TestFrameAtCycles(t *testing.T) {
	s := pet.State{Action: pet.ActionWalk, Mood: pet.MoodNeutral, Direction: pet.DirectionRight}

	f0 := FrameAt(s, 0)
	f1 := FrameAt(s, 200*time.Millisecond)
	f2 := FrameAt(s, 400*time.Millisecond)

	if f0.Index != 0 || f1.Index != 1 || f2.Index != 0 {
		t.Errorf("indexes = %d %d %d, want 0 1 0", f0.Index, f1.Index, f2.Index)
	}
	if f0.Text != walk.Frames[pet.MoodNeutral][0] {
		t.Errorf("text = %q", f0.Text)
	}
}

func TestFrameAtFacingLeft(t *testing.T) {
	s := pet.State{Action: pet.ActionWalk, Mood: pet.MoodNeutral, Direction: pet.DirectionLeft}
	if got, want := FrameAt(s, 0).Text, "<(=･ｪ･=)"; got != want {
		t.Errorf("left frame = %q, want %q", got, want)
	}
}

func TestFrameAtUnknownActionFallsBackToIdle(t *testing.T) {
	s := pet.State{Action: pet.Action("dance"), Mood: pet.MoodHappy}
	if f := FrameAt(s, 0); f.Action != pet.ActionIdle {
		t.Errorf("action = %s, want idle", f.Action)
	}
}

func TestMirror(t *testing.T) {
	if got := Mirror("(ab)>"); got != "<(ba)" {
		t.Errorf("Mirror = %q", got)
	}
}

func TestAnimatorDropsStaleState(t *testing.T) {
	a := NewAnimator(pet.State{Seq: 5, Action: pet.ActionSleep, Mood: pet.MoodHappy})
	a.Update(pet.State{Seq: 3, Action: pet.ActionPlay, Mood: pet.MoodHappy})
	if f := a.OnFrame(0); f.Action != pet.ActionSleep {
		t.Errorf("stale update applied: %s", f.Action)
	}
	a.Update(pet.State{Seq: 6, Action: pet.ActionPlay, Mood: pet.MoodHappy})
	if f := a.OnFrame(0); f.Action != pet.ActionPlay {
		t.Errorf("fresh update dropped: %s", f.Action)
	}
}
