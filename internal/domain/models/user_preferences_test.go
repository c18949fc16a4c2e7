package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPreferences_GetModels_DefaultsWhenUnset(t *testing.T) {
	up := &UserPreferences{}
	got, err := up.GetModels()
	require.NoError(t, err)
	assert.Empty(t, got.Favorites)
	assert.Nil(t, got.Default)
}

func TestUserPreferences_SetModelsThenGetModels_RoundTrips(t *testing.T) {
	up := &UserPreferences{}
	want := &ModelsPreferences{
		Favorites: []ProviderModel{{Provider: "anthropic", Model: "claude-haiku-4-5"}},
		Default:   &ProviderModel{Provider: "anthropic", Model: "claude-haiku-4-5"},
	}
	require.NoError(t, up.SetModels(want))

	got, err := up.GetModels()
	require.NoError(t, err)
	assert.Equal(t, want.Favorites, got.Favorites)
	require.NotNil(t, got.Default)
	assert.Equal(t, *want.Default, *got.Default)
}

func TestUserPreferences_GetUI_DefaultsToLightTheme(t *testing.T) {
	up := &UserPreferences{}
	got, err := up.GetUI()
	require.NoError(t, err)
	assert.Equal(t, "light", got.Theme)
}

func TestUserPreferences_SetUIThenGetUI_RoundTrips(t *testing.T) {
	up := &UserPreferences{}
	require.NoError(t, up.SetUI(&UIPreferences{Theme: "dark"}))

	got, err := up.GetUI()
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}

func TestUserPreferences_SystemInstructions_NilWhenUnset(t *testing.T) {
	up := &UserPreferences{}
	assert.Nil(t, up.GetSystemInstructions())
}

func TestUserPreferences_SetSystemInstructions_ClearsOnNil(t *testing.T) {
	up := &UserPreferences{}
	text := "write formally"
	up.SetSystemInstructions(&text)
	require.NotNil(t, up.GetSystemInstructions())

	up.SetSystemInstructions(nil)
	assert.Nil(t, up.GetSystemInstructions())
}
