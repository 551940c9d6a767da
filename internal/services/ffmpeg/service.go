package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Default binary names, overridable for sandboxed installs.
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)

// Frame geometry for vertical short-form output.
const (
	FrameWidth  = 1080
	FrameHeight = 1920
)

// Service wraps ffmpeg/ffprobe invocations.
type Service struct {
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner func(ctx context.Context, name string, args ...string) error
	outputRunner  func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates an ffmpeg service. Empty binary paths fall back to
// the commands on PATH.
func NewService(ffmpegBinary, ffprobeBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if ffprobeBinary == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &Service{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithOutputRunner sets a custom stdout-capturing runner (for testing).
func (s *Service) WithOutputRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.outputRunner = runner
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) runOutput(ctx context.Context, name string, args ...string) (string, error) {
	if s.outputRunner != nil {
		return s.outputRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(output), nil
}

// ProbeDuration returns the container duration of a media file in seconds.
func (s *Service) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, errors.New("probe duration: path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	output, err := s.runOutput(ctx, s.ffprobeBinary, args...)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("probe duration: parse %q: %w", strings.TrimSpace(output), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("probe duration: non-positive duration %v", duration)
	}
	return duration, nil
}

// AssembleRequest describes one composition run.
type AssembleRequest struct {
	// ClipPaths are the visual sources, played in order for equal shares
	// of the narration duration.
	ClipPaths []string
	// AudioPath is the narration track.
	AudioPath string
	// Duration is the narration length in seconds; the video is cut to it.
	Duration float64
	// SubtitlePath, when set, is an SRT file burned into the frame.
	SubtitlePath string
	// OutputPath is the destination MP4.
	OutputPath string
}

// Assemble composites the request's clips into a 1080x1920 vertical video
// with the narration as the audio track.
func (s *Service) Assemble(ctx context.Context, req AssembleRequest) error {
	if len(req.ClipPaths) == 0 {
		return errors.New("assemble: at least one clip required")
	}
	if req.AudioPath == "" {
		return errors.New("assemble: audio path required")
	}
	if req.OutputPath == "" {
		return errors.New("assemble: output path required")
	}
	if req.Duration <= 0 {
		return errors.New("assemble: positive duration required")
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("assemble: ensure output dir: %w", err)
	}

	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, clip := range req.ClipPaths {
		// Loop short clips so every segment can fill its share.
		args = append(args, "-stream_loop", "-1", "-i", clip)
	}
	args = append(args, "-i", req.AudioPath)

	args = append(args, "-filter_complex", buildFilterGraph(req))
	args = append(args,
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a", len(req.ClipPaths)),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-t", formatSeconds(req.Duration),
		"-movflags", "+faststart",
		req.OutputPath,
	)

	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("assemble: %w", err)
	}
	return nil
}

// buildFilterGraph scales and crops each clip to the vertical frame, trims
// it to its share of the duration, concatenates the segments, and burns
// subtitles when requested.
func buildFilterGraph(req AssembleRequest) string {
	perClip := req.Duration / float64(len(req.ClipPaths))
	var graph strings.Builder
	for i := range req.ClipPaths {
		fmt.Fprintf(&graph,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=30,trim=duration=%s,setpts=PTS-STARTPTS[v%d];",
			i, FrameWidth, FrameHeight, FrameWidth, FrameHeight, formatSeconds(perClip), i,
		)
	}
	for i := range req.ClipPaths {
		fmt.Fprintf(&graph, "[v%d]", i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=0", len(req.ClipPaths))

	if req.SubtitlePath != "" {
		fmt.Fprintf(&graph, "[vcat];[vcat]subtitles=%s[vout]", escapeFilterPath(req.SubtitlePath))
	} else {
		graph.WriteString("[vout]")
	}
	return graph.String()
}

// BurnSubtitles re-encodes an existing video with an SRT file rendered
// into the frame.
func (s *Service) BurnSubtitles(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	if videoPath == "" || subtitlePath == "" || outputPath == "" {
		return errors.New("burn subtitles: video, subtitle, and output paths required")
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-vf", "subtitles=" + escapeFilterPath(subtitlePath),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "copy",
		outputPath,
	}
	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	return nil
}

// HealthCheck verifies both binaries are invocable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.run(ctx, s.ffmpegBinary, "-version"); err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	if _, err := s.runOutput(ctx, s.ffprobeBinary, "-version"); err != nil {
		return fmt.Errorf("ffprobe unavailable: %w", err)
	}
	return nil
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
	)
	return "'" + replacer.Replace(path) + "'"
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
