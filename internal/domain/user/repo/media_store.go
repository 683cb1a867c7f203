package repo

import (
	"context"

	"github.com/Miraines/videotube/internal/domain/user/model"
)

// MediaStore keeps user media in remote object storage.
type MediaStore interface {
	// Upload pushes the local file and removes it afterwards, whatever the outcome.
	Upload(ctx context.Context, localPath string) (model.MediaResult, error)

	// Delete removes a previously uploaded object. Deleting a missing object is not an error.
	Delete(ctx context.Context, publicID string) error
}
