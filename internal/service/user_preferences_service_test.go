package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain/models"
)

type fakePrefsRepo struct {
	byUser map[uuid.UUID]*models.UserPreferences
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{byUser: map[uuid.UUID]*models.UserPreferences{}}
}

func (r *fakePrefsRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserPreferences, error) {
	return r.byUser[userID], nil
}

func (r *fakePrefsRepo) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	r.byUser[prefs.UserID] = prefs
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUserPreferencesService_GetPreferencesReturnsDefaultsWhenNoneExist(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	userID := uuid.New()

	prefs, err := svc.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, prefs.UserID)
	uiNamespace, ok := prefs.Preferences["ui"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "light", uiNamespace["theme"])
}

func TestUserPreferencesService_GetPreferencesReturnsStoredValue(t *testing.T) {
	repo := newFakePrefsRepo()
	userID := uuid.New()
	stored := &models.UserPreferences{
		UserID:      userID,
		Preferences: models.JSONMap{"ui": map[string]interface{}{"theme": "dark"}},
	}
	require.NoError(t, repo.Upsert(context.Background(), stored))

	svc := NewUserPreferencesService(repo, testLogger())
	prefs, err := svc.GetPreferences(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, stored, prefs)
}

func TestUserPreferencesService_UpdatePreferencesAppliesOnlyProvidedNamespaces(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	userID := uuid.New()

	updated, err := svc.UpdatePreferences(context.Background(), userID, &models.UpdatePreferencesRequest{
		UI: &models.UIPreferences{Theme: "dark"},
	})
	require.NoError(t, err)

	uiNamespace, ok := updated.Preferences["ui"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dark", uiNamespace["theme"])

	// untouched namespace retains its default shape
	assert.Contains(t, updated.Preferences, "models")
}

func TestUserPreferencesService_UpdatePreferencesSetsSystemInstructionsWhenPresent(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	userID := uuid.New()

	text := "Always write in iambic pentameter."
	updated, err := svc.UpdatePreferences(context.Background(), userID, &models.UpdatePreferencesRequest{
		SystemInstructions: models.OptionalSystemInstructions{Present: true, Value: &text},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.GetSystemInstructions())
	assert.Equal(t, text, *updated.GetSystemInstructions())
}

func TestUserPreferencesService_UpdatePreferencesLeavesSystemInstructionsWhenAbsent(t *testing.T) {
	repo := newFakePrefsRepo()
	userID := uuid.New()
	text := "existing instructions"
	existing := &models.UserPreferences{
		UserID:      userID,
		Preferences: models.JSONMap{"system_instructions": text},
	}
	require.NoError(t, repo.Upsert(context.Background(), existing))

	svc := NewUserPreferencesService(repo, testLogger())
	updated, err := svc.UpdatePreferences(context.Background(), userID, &models.UpdatePreferencesRequest{
		UI: &models.UIPreferences{Theme: "dark"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.GetSystemInstructions())
	assert.Equal(t, text, *updated.GetSystemInstructions())
}

func TestUserPreferencesService_UpdatePreferencesPersistsViaRepository(t *testing.T) {
	repo := newFakePrefsRepo()
	svc := NewUserPreferencesService(repo, testLogger())
	userID := uuid.New()

	_, err := svc.UpdatePreferences(context.Background(), userID, &models.UpdatePreferencesRequest{
		UI: &models.UIPreferences{Theme: "dark"},
	})
	require.NoError(t, err)

	stored, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	uiNamespace, ok := stored.Preferences["ui"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dark", uiNamespace["theme"])
}
