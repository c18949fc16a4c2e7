// Package auth implements domain/services.ResourceAuthorizer. Grounded in
// the teacher's internal/service/auth/owner_authorizer.go: ownership is
// checked by walking a resource up to its project and asking the
// project repository whether userID owns it.
package auth

import (
	"context"
	"errors"
	"fmt"

	"versify/internal/domain"
	docsystemRepo "versify/internal/domain/repositories/docsystem"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access a resource if they own the project that contains it.
type OwnerBasedAuthorizer struct {
	projectRepo docsystemRepo.ProjectRepository
	folderRepo  docsystemRepo.FolderRepository
	docRepo     docsystemRepo.DocumentRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(
	projectRepo docsystemRepo.ProjectRepository,
	folderRepo docsystemRepo.FolderRepository,
	docRepo docsystemRepo.DocumentRepository,
) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{
		projectRepo: projectRepo,
		folderRepo:  folderRepo,
		docRepo:     docRepo,
	}
}

// CanAccessProject checks if user owns the project
func (a *OwnerBasedAuthorizer) CanAccessProject(ctx context.Context, userID, projectID string) error {
	_, err := a.projectRepo.GetByID(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
		}
		return fmt.Errorf("check project access: %w", err)
	}
	return nil
}

// CanAccessFolder checks if user can access a folder (via its project)
func (a *OwnerBasedAuthorizer) CanAccessFolder(ctx context.Context, userID, folderID string) error {
	folder, err := a.folderRepo.GetByIDOnly(ctx, folderID)
	if err != nil {
		return fmt.Errorf("get folder for auth: %w", err)
	}
	return a.CanAccessProject(ctx, userID, folder.ProjectID)
}

// CanAccessDocument checks if user can access a document (via its project)
func (a *OwnerBasedAuthorizer) CanAccessDocument(ctx context.Context, userID, documentID string) error {
	doc, err := a.docRepo.GetByIDOnly(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document for auth: %w", err)
	}
	return a.CanAccessProject(ctx, userID, doc.ProjectID)
}
