package param

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTooLoud = errors.New("too loud")

type voice struct {
	cutoff float64
	order  int
	mode   string
	on     bool
	gain   float64
}

func (v *voice) tree(t *testing.T) *Tree {
	t.Helper()

	filter := NewGroup("filter").MustAdd(
		NewFloat("cutoff", "Hz", func() float64 { return v.cutoff }, func(x float64) error {
			v.cutoff = x
			return nil
		}),
		NewInt("order", func() int { return v.order }, func(n int) error {
			if n < 1 {
				return errors.New("order must be >= 1")
			}
			v.order = n
			return nil
		}),
		NewChoice("mode", []string{"lpf", "hpf"}, func() string { return v.mode }, func(s string) error {
			v.mode = s
			return nil
		}),
	)

	synth := NewGroup("synth").MustAdd(
		NewBool("on", func() bool { return v.on }, func(b bool) error {
			v.on = b
			return nil
		}),
		NewFloat("gain", "", func() float64 { return v.gain }, func(x float64) error {
			if x > 1 {
				return errTooLoud
			}
			v.gain = x
			return nil
		}),
	).MustAddGroup(filter)

	tree, err := NewTree(synth)
	require.NoError(t, err)

	return tree
}

func TestGetSetRoundTrip(t *testing.T) {
	v := &voice{cutoff: 550, order: 28, mode: "lpf", gain: 0.5}
	tree := v.tree(t)

	got, err := tree.Get("synth.filter.cutoff")
	require.NoError(t, err)
	assert.Equal(t, "550 Hz", got)

	require.NoError(t, tree.Set("synth.filter.cutoff", "1234.5"))
	assert.Equal(t, 1234.5, v.cutoff)

	require.NoError(t, tree.Set("synth.filter.order", " 64 "))
	assert.Equal(t, 64, v.order)

	require.NoError(t, tree.Set("synth.filter.mode", "hpf"))
	got, _ = tree.Get("synth.filter.mode")
	assert.Equal(t, "hpf", got)

	require.NoError(t, tree.Set("synth.on", "true"))
	assert.True(t, v.on)
	got, _ = tree.Get("synth.on")
	assert.Equal(t, "true", got)

	got, _ = tree.Get("synth.gain")
	assert.Equal(t, "0.5", got)
}

func TestUnknownPaths(t *testing.T) {
	tree := (&voice{}).tree(t)

	for _, path := range []string{"", "synth", "synth.filter", "synth.nope", "nope.gain", "synth.filter.cutoff.x"} {
		_, err := tree.Get(path)
		assert.ErrorIsf(t, err, ErrUnknownPath, "path %q", path)

		err = tree.Set(path, "1")
		assert.ErrorIsf(t, err, ErrUnknownPath, "path %q", path)
	}
}

func TestInvalidValuesLeaveStateUnchanged(t *testing.T) {
	v := &voice{cutoff: 550, order: 28, mode: "lpf", gain: 0.5}
	tree := v.tree(t)

	tests := []struct {
		path, value string
	}{
		{"synth.filter.cutoff", "loud"},
		{"synth.filter.order", "2.5"},
		{"synth.filter.order", "0"},
		{"synth.filter.mode", "bpf"},
		{"synth.on", "maybe"},
		{"synth.gain", "2"},
	}
	for _, tt := range tests {
		err := tree.Set(tt.path, tt.value)
		assert.ErrorIsf(t, err, ErrInvalidValue, "%s=%s", tt.path, tt.value)
	}

	assert.Equal(t, voice{cutoff: 550, order: 28, mode: "lpf", gain: 0.5}, *v)
}

func TestSetterErrorIsWrapped(t *testing.T) {
	tree := (&voice{}).tree(t)

	err := tree.Set("synth.gain", "3")
	require.Error(t, err)
	assert.ErrorIs(t, err, errTooLoud)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestPathsInOrder(t *testing.T) {
	tree := (&voice{}).tree(t)

	assert.Equal(t, []string{
		"synth.on",
		"synth.gain",
		"synth.filter.cutoff",
		"synth.filter.order",
		"synth.filter.mode",
	}, tree.Paths())
	assert.Equal(t, []string{"synth"}, tree.Groups())
}

func TestDuplicateAndInvalidNames(t *testing.T) {
	g := NewGroup("g")
	noop := func(float64) error { return nil }
	get := func() float64 { return 0 }

	require.NoError(t, g.Add(NewFloat("a", "", get, noop)))
	assert.ErrorIs(t, g.Add(NewFloat("a", "", get, noop)), errDuplicateName)
	assert.ErrorIs(t, g.AddGroup(NewGroup("a")), errDuplicateName)
	assert.Error(t, g.Add(NewFloat("a.b", "", get, noop)))
	assert.Error(t, g.AddGroup(NewGroup("")))

	assert.Panics(t, func() { g.MustAdd(NewFloat("a", "", get, noop)) })

	_, err := NewTree(NewGroup("x"), NewGroup("x"))
	assert.ErrorIs(t, err, errDuplicateName)
}

func TestLookupExposesTypedHandle(t *testing.T) {
	v := &voice{mode: "lpf"}
	tree := v.tree(t)

	p, err := tree.Lookup("synth.filter.mode")
	require.NoError(t, err)
	require.Equal(t, KindChoice, p.Kind())

	choice, ok := p.(*Choice)
	require.True(t, ok)
	assert.Equal(t, []string{"lpf", "hpf"}, choice.Options())
	require.NoError(t, choice.Set("hpf"))
	assert.Equal(t, "hpf", v.mode)
	assert.Equal(t, "choice", p.Kind().String())
}
