package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func projectWith(sids ...string) *Project {
	p := NewProject("deck", "volcengine", t0)
	for _, sid := range sids {
		p.Slides = append(p.Slides, NewSlide(sid, "content "+sid, t0))
	}
	return p
}

func TestNewProject_Defaults(t *testing.T) {
	p := NewProject("deck", "gemini", t0)

	assert.Equal(t, DefaultProjectTitle, p.Title)
	assert.Empty(t, p.Slides)
	assert.Nil(t, p.Style)
	assert.Equal(t, CostInfo{}, p.Cost)
	assert.Equal(t, t0, p.CreatedAt)
	assert.Equal(t, t0, p.UpdatedAt)
	assert.Equal(t, "gemini", p.ImageEngine)
}

func TestProject_TouchNeverPrecedesCreated(t *testing.T) {
	p := NewProject("deck", "", t0)

	p.Touch(t0.Add(-time.Hour))
	assert.Equal(t, t0, p.UpdatedAt)

	p.Touch(t0.Add(time.Hour))
	assert.Equal(t, t0.Add(time.Hour), p.UpdatedAt)
}

func TestProject_InsertSlide(t *testing.T) {
	tests := []struct {
		name  string
		after string
		want  []string
		ok    bool
	}{
		{"append", "", []string{"a", "b", "c", "new"}, true},
		{"after first", "a", []string{"a", "new", "b", "c"}, true},
		{"after last", "c", []string{"a", "b", "c", "new"}, true},
		{"unknown anchor", "zzz", []string{"a", "b", "c"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := projectWith("a", "b", "c")
			ok := p.InsertSlide(NewSlide("new", "x", t0), tt.after)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, p.SlideIDs())
		})
	}
}

func TestProject_RemoveSlide(t *testing.T) {
	p := projectWith("a", "b", "c")

	assert.True(t, p.RemoveSlide("b"))
	assert.Equal(t, []string{"a", "c"}, p.SlideIDs())
	assert.False(t, p.RemoveSlide("b"))
}

func TestProject_ReorderIsPermutation(t *testing.T) {
	p := projectWith("a", "b", "c")

	require.NoError(t, p.Reorder([]string{"c", "a", "b"}))
	assert.Equal(t, []string{"c", "a", "b"}, p.SlideIDs())
}

func TestProject_ReorderRejectsWithoutChange(t *testing.T) {
	tests := []struct {
		name  string
		order []string
		check func(t *testing.T, e *ReorderError)
	}{
		{"unknown id", []string{"c", "x", "a"}, func(t *testing.T, e *ReorderError) { assert.Equal(t, "x", e.UnknownSID) }},
		{"duplicate", []string{"a", "a", "b"}, func(t *testing.T, e *ReorderError) { assert.Equal(t, "a", e.Duplicate) }},
		{"missing", []string{"b", "a"}, func(t *testing.T, e *ReorderError) { assert.Equal(t, 1, e.Missing) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := projectWith("a", "b", "c")
			err := p.Reorder(tt.order)

			var re *ReorderError
			require.ErrorAs(t, err, &re)
			tt.check(t, re)
			assert.Equal(t, []string{"a", "b", "c"}, p.SlideIDs())
		})
	}
}

func TestSlide_ImageHistory(t *testing.T) {
	s := NewSlide("slide-1", "Hello", t0)

	first, added := s.AddImage(&SlideImage{Hash: "h1", Path: "/p/h1.jpg", CreatedAt: t0})
	require.True(t, added)

	dup, added := s.AddImage(&SlideImage{Hash: "h1", Path: "/other.jpg", CreatedAt: t0.Add(time.Minute)})
	assert.False(t, added)
	assert.Same(t, first, dup)

	_, added = s.AddImage(&SlideImage{Hash: "h2", Path: "/p/h2.jpg", CreatedAt: t0})
	require.True(t, added)

	assert.Equal(t, "h2", s.Latest().Hash)
	assert.Equal(t, "h1", s.Image("h1").Hash)
	assert.Nil(t, s.Image("h3"))

	assert.True(t, s.RemoveImage("h1"))
	assert.False(t, s.RemoveImage("h1"))
	require.Len(t, s.Images, 1)
	assert.Equal(t, "h2", s.Images[0].Hash)
}

func TestSlide_LatestEmpty(t *testing.T) {
	assert.Nil(t, NewSlide("s", "", t0).Latest())
}

func TestSlide_CurrentImage(t *testing.T) {
	s := NewSlide("slide-1", "Hello", t0)
	assert.Nil(t, s.CurrentImage("h1"))

	s.AddImage(&SlideImage{Hash: "h1", CreatedAt: t0})
	s.AddImage(&SlideImage{Hash: "h2", CreatedAt: t0})

	assert.Equal(t, "h1", s.CurrentImage("h1").Hash)
	assert.Equal(t, "h2", s.CurrentImage("stale").Hash)
}
