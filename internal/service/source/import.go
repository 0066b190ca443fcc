package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/GintGld/kshana-timeline/internal/lib/logger/sl"
	"github.com/GintGld/kshana-timeline/internal/models"
	"github.com/GintGld/kshana-timeline/internal/service"
)

// DefaultImageDuration is the timeline length of an imported still.
const DefaultImageDuration = 5.0

// Imported is a media file copied into the project.
type Imported struct {
	// Path is relative to the project directory.
	Path            string
	MediaType       models.MediaType
	DurationSeconds float64
}

// ImportFile copies a local media file into the project's imports
// directory and measures it.
func (s *Source) ImportFile(ctx context.Context, path string) (Imported, error) {
	const op = "Source.ImportFile"

	log := s.log.With(
		slog.String("op", op),
		slog.String("file", path),
	)

	log.Info("importing media")

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		log.Error("failed to detect media type", sl.Err(err))
		return Imported{}, fmt.Errorf("%s: %w", op, err)
	}

	var media models.MediaType
	switch {
	case strings.HasPrefix(mtype.String(), "video/"):
		media = models.MediaVideo
	case strings.HasPrefix(mtype.String(), "audio/"):
		media = models.MediaAudio
	case strings.HasPrefix(mtype.String(), "image/"):
		media = models.MediaImage
	default:
		log.Warn("unsupported media", slog.String("mime", mtype.String()))
		return Imported{}, fmt.Errorf("%s: %w: %s", op, service.ErrUnsupportedMedia, mtype.String())
	}

	rel := filepath.ToSlash(filepath.Join(ImportsDir, uuid.NewString()+mtype.Extension()))
	dest := filepath.Join(s.dir, filepath.FromSlash(rel))

	if err := copyFile(path, dest); err != nil {
		log.Error("failed to copy media", slog.String("dest", dest), sl.Err(err))
		return Imported{}, fmt.Errorf("%s: %w", op, err)
	}

	duration := DefaultImageDuration
	if media != models.MediaImage {
		duration, err = s.prober.Duration(ctx, dest)
		if err != nil {
			log.Error("failed to get media duration", sl.Err(err))
			_ = os.Remove(dest)
			return Imported{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	log.Info(
		"imported media",
		slog.String("path", rel),
		slog.String("mime", mtype.String()),
		slog.Float64("duration", duration),
	)

	return Imported{
		Path:            rel,
		MediaType:       media,
		DurationSeconds: duration,
	}, nil
}

func copyFile(src, dest string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	destination, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		_ = os.Remove(dest)
		return err
	}

	return destination.Close()
}
