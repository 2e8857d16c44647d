package generators

import (
	"strings"

	"github.com/observe2agent/observe2agent/pkg/models"
)

// Upload stands in for the video storage backend and assigns a video ID.
func Upload(videoName string) (string, error) {
	if strings.TrimSpace(videoName) == "" {
		return "", ErrEmptyVideoName
	}

	return models.NewVideoID(), nil
}
