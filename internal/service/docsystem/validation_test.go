package docsystem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"versify/internal/domain"
	"versify/internal/domain/models/docsystem"
)

type fakeProjectRepo struct {
	projects map[string]*docsystem.Project
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *docsystem.Project) error { return nil }
func (f *fakeProjectRepo) GetByID(ctx context.Context, id, userID string) (*docsystem.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
func (f *fakeProjectRepo) List(ctx context.Context, userID string) ([]docsystem.Project, error) {
	return nil, nil
}
func (f *fakeProjectRepo) Update(ctx context.Context, project *docsystem.Project) error { return nil }
func (f *fakeProjectRepo) Delete(ctx context.Context, id, userID string) (*docsystem.Project, error) {
	return nil, nil
}

type fakeFolderRepo struct {
	folders map[string]*docsystem.Folder
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *docsystem.Folder) error { return nil }
func (f *fakeFolderRepo) GetByID(ctx context.Context, id, projectID string) (*docsystem.Folder, error) {
	fl, ok := f.folders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return fl, nil
}
func (f *fakeFolderRepo) GetByIDOnly(ctx context.Context, id string) (*docsystem.Folder, error) {
	return f.GetByID(ctx, id, "")
}
func (f *fakeFolderRepo) Update(ctx context.Context, folder *docsystem.Folder) error { return nil }
func (f *fakeFolderRepo) Delete(ctx context.Context, id, projectID string) error     { return nil }
func (f *fakeFolderRepo) ListChildren(ctx context.Context, folderID *string, projectID string) ([]docsystem.Folder, error) {
	return nil, nil
}
func (f *fakeFolderRepo) CreateIfNotExists(ctx context.Context, projectID string, parentID *string, name string) (*docsystem.Folder, error) {
	return nil, nil
}
func (f *fakeFolderRepo) GetPath(ctx context.Context, folderID *string, projectID string) (string, error) {
	return "", nil
}
func (f *fakeFolderRepo) GetAllByProject(ctx context.Context, projectID string) ([]docsystem.Folder, error) {
	return nil, nil
}

func TestResourceValidator_ValidateProjectKnownProject(t *testing.T) {
	projectRepo := &fakeProjectRepo{projects: map[string]*docsystem.Project{"p1": {ID: "p1"}}}
	v := NewResourceValidator(projectRepo, &fakeFolderRepo{})

	err := v.ValidateProject(context.Background(), "p1", "user-1")
	require.NoError(t, err)
}

func TestResourceValidator_ValidateProjectUnknownProject(t *testing.T) {
	projectRepo := &fakeProjectRepo{projects: map[string]*docsystem.Project{}}
	v := NewResourceValidator(projectRepo, &fakeFolderRepo{})

	err := v.ValidateProject(context.Background(), "missing", "user-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResourceValidator_ValidateFolderEmptyIDIsRoot(t *testing.T) {
	v := NewResourceValidator(&fakeProjectRepo{}, &fakeFolderRepo{})

	err := v.ValidateFolder(context.Background(), "", "p1")
	require.NoError(t, err)
}

func TestResourceValidator_ValidateFolderKnownFolder(t *testing.T) {
	folderRepo := &fakeFolderRepo{folders: map[string]*docsystem.Folder{"f1": {ID: "f1"}}}
	v := NewResourceValidator(&fakeProjectRepo{}, folderRepo)

	err := v.ValidateFolder(context.Background(), "f1", "p1")
	require.NoError(t, err)
}

func TestResourceValidator_ValidateFolderUnknownFolder(t *testing.T) {
	folderRepo := &fakeFolderRepo{folders: map[string]*docsystem.Folder{}}
	v := NewResourceValidator(&fakeProjectRepo{}, folderRepo)

	err := v.ValidateFolder(context.Background(), "missing", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
