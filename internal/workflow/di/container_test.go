package di

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ value int }

type service struct {
	clock *clock
}

func TestContainer_SingletonResolvesSameInstance(t *testing.T) {
	c := New()
	Register[*clock](c, Singleton, func() *clock { return &clock{value: 1} })

	a, err := Resolve[*clock](c)
	require.NoError(t, err)
	b, err := Resolve[*clock](c)
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestContainer_TransientResolvesNewInstance(t *testing.T) {
	c := New()
	n := 0
	Register[*clock](c, Transient, func() *clock {
		n++
		return &clock{value: n}
	})

	a, err := Resolve[*clock](c)
	require.NoError(t, err)
	b, err := Resolve[*clock](c)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 1, a.value)
	assert.Equal(t, 2, b.value)
}

func TestContainer_ResolvesConstructorDependencies(t *testing.T) {
	c := New()
	Register[*clock](c, Singleton, func() *clock { return &clock{value: 42} })
	Register[*service](c, Singleton, func(clk *clock) *service { return &service{clock: clk} })

	s, err := Resolve[*service](c)
	require.NoError(t, err)
	assert.Equal(t, 42, s.clock.value)
}

func TestContainer_UnregisteredTypeErrors(t *testing.T) {
	c := New()
	_, err := Resolve[*clock](c)
	require.Error(t, err)
}

func TestContainer_DuplicateRegistrationPanics(t *testing.T) {
	c := New()
	Register[*clock](c, Singleton, func() *clock { return &clock{} })

	assert.Panics(t, func() {
		Register[*clock](c, Singleton, func() *clock { return &clock{} })
	})
}

func TestContainer_ConstructorErrorPropagates(t *testing.T) {
	c := New()
	wantErr := errors.New("boom")
	Register[*clock](c, Singleton, func() (*clock, error) { return nil, wantErr })

	_, err := Resolve[*clock](c)
	require.Error(t, err)
	assert.Equal(t, wantErr, err)
}

func TestScope_ScopedRegistrationsGetPerScopeInstance(t *testing.T) {
	c := New()
	n := 0
	Register[*clock](c, Scoped, func() *clock {
		n++
		return &clock{value: n}
	})

	s1 := c.BeginScope("req-1")
	s2 := c.BeginScope("req-2")

	a, err := s1.resolve()
	require.NoError(t, err)
	b, err := s1.resolve()
	require.NoError(t, err)
	d, err := s2.resolve()
	require.NoError(t, err)

	assert.Same(t, a, b, "same scope returns the cached instance")
	assert.NotSame(t, a, d, "different scopes get independent instances")
}

// resolve is a tiny test-only helper mirroring Resolve but against a
// Scope's local registration map instead of the root Container, since
// the package exposes no function that resolves through a Scope.
func (s *Scope) resolve() (*clock, error) {
	var target *clock
	t := reflect.TypeOf(&target).Elem()

	reg, ok := s.local[t]
	if !ok {
		return nil, errors.New("di: no registration for *clock")
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.built {
		return reg.instance.(*clock), nil
	}
	out := reg.constructor.Call(nil)
	reg.instance = out[0].Interface()
	reg.built = true
	return reg.instance.(*clock), nil
}
