package ffmpeg

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestProbeDurationParsesOutput(t *testing.T) {
	svc := NewService("", "")
	svc.WithOutputRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		if name != FFprobeCommand {
			t.Fatalf("expected ffprobe, got %q", name)
		}
		if args[len(args)-1] != "audio.mp3" {
			t.Fatalf("expected path as final arg, got %v", args)
		}
		return "42.750000\n", nil
	})

	duration, err := svc.ProbeDuration(context.Background(), "audio.mp3")
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if duration != 42.75 {
		t.Fatalf("expected 42.75, got %v", duration)
	}
}

func TestProbeDurationRejectsGarbage(t *testing.T) {
	svc := NewService("", "")
	svc.WithOutputRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "N/A\n", nil
	})
	if _, err := svc.ProbeDuration(context.Background(), "audio.mp3"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestProbeDurationPropagatesRunnerError(t *testing.T) {
	svc := NewService("", "")
	svc.WithOutputRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("no such file")
	})
	if _, err := svc.ProbeDuration(context.Background(), "missing.mp3"); err == nil {
		t.Fatal("expected runner error to surface")
	}
}

func TestAssembleBuildsInvocation(t *testing.T) {
	svc := NewService("ffmpeg", "ffprobe")
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		if name != "ffmpeg" {
			t.Fatalf("expected ffmpeg, got %q", name)
		}
		gotArgs = args
		return nil
	})

	out := filepath.Join(t.TempDir(), "final", "video.mp4")
	req := AssembleRequest{
		ClipPaths:  []string{"clip1.mp4", "clip2.mp4"},
		AudioPath:  "narration.mp3",
		Duration:   40.0,
		OutputPath: out,
	}
	if err := svc.Assemble(context.Background(), req); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-i clip1.mp4") || !strings.Contains(joined, "-i clip2.mp4") {
		t.Fatalf("expected both clips as inputs: %s", joined)
	}
	if !strings.Contains(joined, "-i narration.mp3") {
		t.Fatalf("expected narration input: %s", joined)
	}
	if !strings.Contains(joined, "-map 2:a") {
		t.Fatalf("expected audio mapped from input 2: %s", joined)
	}
	if gotArgs[len(gotArgs)-1] != out {
		t.Fatalf("expected output path as final arg, got %v", gotArgs)
	}

	graph := filterGraphArg(t, gotArgs)
	if !strings.Contains(graph, "scale=1080:1920") {
		t.Fatalf("expected vertical scale in graph: %s", graph)
	}
	if !strings.Contains(graph, "crop=1080:1920") {
		t.Fatalf("expected crop in graph: %s", graph)
	}
	// 40s across 2 clips is 20s each.
	if !strings.Contains(graph, "trim=duration=20.000") {
		t.Fatalf("expected per-clip trim in graph: %s", graph)
	}
	if !strings.Contains(graph, "concat=n=2:v=1:a=0") {
		t.Fatalf("expected concat in graph: %s", graph)
	}
	if strings.Contains(graph, "subtitles=") {
		t.Fatalf("unexpected subtitle burn in graph: %s", graph)
	}
}

func TestAssembleBurnsSubtitlesWhenRequested(t *testing.T) {
	svc := NewService("ffmpeg", "ffprobe")
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return nil
	})

	req := AssembleRequest{
		ClipPaths:    []string{"clip1.mp4"},
		AudioPath:    "narration.mp3",
		Duration:     30.0,
		SubtitlePath: "captions.srt",
		OutputPath:   filepath.Join(t.TempDir(), "video.mp4"),
	}
	if err := svc.Assemble(context.Background(), req); err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}

	graph := filterGraphArg(t, gotArgs)
	if !strings.Contains(graph, "subtitles='captions.srt'") {
		t.Fatalf("expected subtitle burn in graph: %s", graph)
	}
	if !strings.HasSuffix(graph, "[vout]") {
		t.Fatalf("expected graph to end at [vout]: %s", graph)
	}
}

func TestAssembleValidatesRequest(t *testing.T) {
	svc := NewService("", "")
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("runner should not be invoked for invalid requests")
		return nil
	})

	base := AssembleRequest{
		ClipPaths:  []string{"clip.mp4"},
		AudioPath:  "audio.mp3",
		Duration:   10,
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
	}

	noClips := base
	noClips.ClipPaths = nil
	if err := svc.Assemble(context.Background(), noClips); err == nil {
		t.Fatal("expected missing clips to be rejected")
	}

	noAudio := base
	noAudio.AudioPath = ""
	if err := svc.Assemble(context.Background(), noAudio); err == nil {
		t.Fatal("expected missing audio to be rejected")
	}

	zeroDuration := base
	zeroDuration.Duration = 0
	if err := svc.Assemble(context.Background(), zeroDuration); err == nil {
		t.Fatal("expected zero duration to be rejected")
	}
}

func TestBurnSubtitlesEscapesFilterPath(t *testing.T) {
	svc := NewService("", "")
	var gotArgs []string
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return nil
	})

	if err := svc.BurnSubtitles(context.Background(), "in.mp4", "/work/it's.srt", "out.mp4"); err != nil {
		t.Fatalf("BurnSubtitles returned error: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, `subtitles='/work/it\'s.srt'`) {
		t.Fatalf("expected escaped subtitle path, got %s", joined)
	}
}

func filterGraphArg(t *testing.T, args []string) string {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-filter_complex" {
			return args[i+1]
		}
	}
	t.Fatalf("no -filter_complex in args %v", args)
	return ""
}
