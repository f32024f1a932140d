package sprite

import (
	"strings"
	"sync"
	"time"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// Sheet is the animation for one action. Frames are keyed by mood and drawn
// facing right; facing left mirrors them.
type Sheet struct {
	Action        pet.Action
	FrameDuration time.Duration
	Frames        map[pet.Mood][]string
}

// Registry holds every sheet keyed by action.
var Registry = map[pet.Action]*Sheet{
	pet.ActionIdle:  idle,
	pet.ActionWalk:  walk,
	pet.ActionEat:   eat,
	pet.ActionSleep: sleep,
	pet.ActionPlay:  play,
}

var idle = &Sheet{
	Action:        pet.ActionIdle,
	FrameDuration: 800 * time.Millisecond,
	Frames: map[pet.Mood][]string{
		pet.MoodHappy:   {"(=^･ω･^=)", "(=^-ω-^=)"},
		pet.MoodNeutral: {"(=･ｪ･=)", "(=-ｪ-=)"},
		pet.MoodSad:     {"(=；ｪ；=)", "(=ｉｪｉ=)"},
	},
}

var walk = &Sheet{
	Action:        pet.ActionWalk,
	FrameDuration: 200 * time.Millisecond,
	Frames: map[pet.Mood][]string{
		pet.MoodHappy:   {"(=^･ω･^=)ﾉ", "(=^･ω･^=)ﾉ彡", "(=^･ω･^=)ﾉ", "(=^･ω･^=)/"},
		pet.MoodNeutral: {"(=･ｪ･=)>", "(=･ｪ･=)>>"},
		pet.MoodSad:     {"(=；ｪ；=)>", "(=；ｪ；=)..>"},
	},
}

var eat = &Sheet{
	Action:        pet.ActionEat,
	FrameDuration: 300 * time.Millisecond,
	Frames: map[pet.Mood][]string{
		pet.MoodHappy:   {"(=^･ω･^=)o🍙", "(=^･o･^=)🍙", "(=^･ω･^=)"},
		pet.MoodNeutral: {"(=･ｪ･=)o🍙", "(=･o･=)"},
		pet.MoodSad:     {"(=；o；=)🍙"},
	},
}

var sleep = &Sheet{
	Action:        pet.ActionSleep,
	FrameDuration: time.Second,
	Frames: map[pet.Mood][]string{
		pet.MoodHappy:   {"(=-ω-=) z", "(=-ω-=) zZ", "(=-ω-=) zZz"},
		pet.MoodNeutral: {"(=-ｪ-=) z", "(=-ｪ-=) zZ"},
		pet.MoodSad:     {"(=-ｪ-=)...z"},
	},
}

var play = &Sheet{
	Action:        pet.ActionPlay,
	FrameDuration: 150 * time.Millisecond,
	Frames: map[pet.Mood][]string{
		pet.MoodHappy:   {"ヽ(=^･ω･^=)ﾉ", "\\(=^･ω･^=)/", "ヽ(=^･ω･^=)ﾉ⚽"},
		pet.MoodNeutral: {"(=･ｪ･=)⚽", "(=･ｪ･=) ⚽"},
		pet.MoodSad:     {"(=；ｪ；=) ⚽"},
	},
}

// Frame is what the host draws for one render tick.
type Frame struct {
	Action pet.Action
	Mood   pet.Mood
	Index  int
	Text   string
}

// Animator picks frames for the latest engine state. Feed it states with
// Update (usually from Engine.Subscribe) and call OnFrame from the host's
// render loop.
type Animator struct {
	mu    sync.Mutex
	state pet.State
}

// NewAnimator starts from an initial state.
func NewAnimator(initial pet.State) *Animator {
	return &Animator{state: initial}
}

// Update records a newer state; stale snapshots are dropped.
func (a *Animator) Update(s pet.State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s.Seq < a.state.Seq {
		return
	}
	a.state = s
}

// OnFrame returns the frame to draw at ts, measured from any fixed origin.
func (a *Animator) OnFrame(ts time.Duration) Frame {
	a.mu.Lock()
	s := a.state
	a.mu.Unlock()
	return FrameAt(s, ts)
}

// FrameAt selects the frame for a state at ts.
func FrameAt(s pet.State, ts time.Duration) Frame {
	sh := Registry[s.Action]
	if sh == nil {
		sh = idle
	}
	frames := sh.Frames[s.Mood]
	if len(frames) == 0 {
		frames = sh.Frames[pet.MoodNeutral]
	}
	if ts < 0 {
		ts = 0
	}
	i := int(ts/sh.FrameDuration) % len(frames)
	text := frames[i]
	if s.Direction == pet.DirectionLeft {
		text = Mirror(text)
	}
	return Frame{Action: sh.Action, Mood: s.Mood, Index: i, Text: text}
}

var mirrorPairs = map[rune]rune{
	'(': ')', ')': '(',
	'<': '>', '>': '<',
	'/': '\\', '\\': '/',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'ﾉ': 'ヽ', 'ヽ': 'ﾉ',
}

// Mirror flips a text frame horizontally.
func Mirror(text string) string {
	r := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := len(r) - 1; i >= 0; i-- {
		if m, ok := mirrorPairs[r[i]]; ok {
			b.WriteRune(m)
			continue
		}
		b.WriteRune(r[i])
	}
	return b.String()
}
