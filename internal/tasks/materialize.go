package tasks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/favsync/internal/repos"
	"github.com/desertthunder/favsync/internal/services"
	"github.com/desertthunder/favsync/internal/shared"
)

// Materializer turns a remote item into a single local artifact file.
// The contract is all-or-nothing: on success exactly one artifact exists at
// the returned path; on failure no artifact and no temporary files remain.
type Materializer interface {
	Materialize(ctx context.Context, item services.RemoteItem, destDir string, quality int, audioOnly bool) (string, error)
}

// FFmpegMaterializer implements [Materializer] by downloading streams via the
// collection service and post-processing with ffmpeg: DASH video+audio muxing
// for video mode, audio extraction when no separate audio stream exists.
type FFmpegMaterializer struct {
	service    services.CollectionService
	ffmpegPath string
	logger     *log.Logger
}

// NewFFmpegMaterializer creates a materializer. An empty ffmpegPath resolves
// "ffmpeg" from PATH.
func NewFFmpegMaterializer(service services.CollectionService, ffmpegPath string, logger *log.Logger) *FFmpegMaterializer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FFmpegMaterializer{
		service:    service,
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// tempPath returns a unique scratch path inside the repository directory so
// the final rename never crosses filesystems.
func (m *FFmpegMaterializer) tempPath(destDir, ext string) string {
	return filepath.Join(destDir, fmt.Sprintf(".favsync-%s%s", shared.GenerateID(), ext))
}

// Materialize downloads and assembles the artifact for one item.
func (m *FFmpegMaterializer) Materialize(ctx context.Context, item services.RemoteItem, destDir string, quality int, audioOnly bool) (string, error) {
	locations, err := m.service.StreamLocations(ctx, item.ItemID, quality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrMaterialize, err)
	}

	name := repos.ArtifactName(item.Title, item.ItemID, audioOnly)
	finalPath := filepath.Join(destDir, name)

	if audioOnly {
		return m.materializeAudio(ctx, locations, destDir, finalPath)
	}
	return m.materializeVideo(ctx, locations, destDir, finalPath)
}

func (m *FFmpegMaterializer) materializeAudio(ctx context.Context, locations *services.StreamLocations, destDir, finalPath string) (string, error) {
	if locations.AudioURL != "" {
		if err := m.service.DownloadFile(ctx, locations.AudioURL, finalPath); err != nil {
			return "", fmt.Errorf("%w: audio download: %v", shared.ErrMaterialize, err)
		}
		return finalPath, nil
	}

	if locations.VideoURL == "" {
		return "", fmt.Errorf("%w: no streams available", shared.ErrMaterialize)
	}

	// no separate audio stream: download the combined stream and strip video
	tmpVideo := m.tempPath(destDir, ".mp4")
	if err := m.service.DownloadFile(ctx, locations.VideoURL, tmpVideo); err != nil {
		return "", fmt.Errorf("%w: combined stream download: %v", shared.ErrMaterialize, err)
	}
	defer os.Remove(tmpVideo)

	if err := m.extractAudio(ctx, tmpVideo, finalPath); err != nil {
		os.Remove(finalPath)
		return "", err
	}
	return finalPath, nil
}

func (m *FFmpegMaterializer) materializeVideo(ctx context.Context, locations *services.StreamLocations, destDir, finalPath string) (string, error) {
	if locations.VideoURL == "" {
		return "", fmt.Errorf("%w: no video stream available", shared.ErrMaterialize)
	}

	if locations.AudioURL == "" {
		// legacy combined stream, download straight to the artifact
		if err := m.service.DownloadFile(ctx, locations.VideoURL, finalPath); err != nil {
			return "", fmt.Errorf("%w: video download: %v", shared.ErrMaterialize, err)
		}
		return finalPath, nil
	}

	tmpVideo := m.tempPath(destDir, ".mp4")
	tmpAudio := m.tempPath(destDir, ".m4a")

	if err := m.service.DownloadFile(ctx, locations.VideoURL, tmpVideo); err != nil {
		return "", fmt.Errorf("%w: video stream download: %v", shared.ErrMaterialize, err)
	}
	defer os.Remove(tmpVideo)

	if err := m.service.DownloadFile(ctx, locations.AudioURL, tmpAudio); err != nil {
		return "", fmt.Errorf("%w: audio stream download: %v", shared.ErrMaterialize, err)
	}
	defer os.Remove(tmpAudio)

	if err := m.muxStreams(ctx, tmpVideo, tmpAudio, finalPath); err != nil {
		os.Remove(finalPath)
		return "", err
	}
	return finalPath, nil
}

// muxStreams combines separate video and audio streams without re-encoding.
func (m *FFmpegMaterializer) muxStreams(ctx context.Context, videoPath, audioPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-i", videoPath, "-i", audioPath,
		"-c", "copy", "-y", outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		m.logger.Debug("ffmpeg mux failed", "output", string(output))
		return fmt.Errorf("%w: mux: %v", shared.ErrFFmpegFailed, err)
	}
	return nil
}

// extractAudio strips the video track from a combined stream.
func (m *FFmpegMaterializer) extractAudio(ctx context.Context, videoPath, audioPath string) error {
	cmd := exec.CommandContext(ctx, m.ffmpegPath,
		"-i", videoPath,
		"-vn", "-acodec", "copy", "-y", audioPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		m.logger.Debug("ffmpeg extract failed", "output", string(output))
		return fmt.Errorf("%w: audio extract: %v", shared.ErrFFmpegFailed, err)
	}
	return nil
}
