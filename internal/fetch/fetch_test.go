package fetch

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"

	"vodsub/internal/services"
	"vodsub/internal/timerange"
)

type call struct {
	name string
	args []string
}

type fakeTools struct {
	calls  []call
	stdout string
	runErr error
	outErr error
}

func (f *fakeTools) run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	return f.runErr
}

func (f *fakeTools) output(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	return f.stdout, f.outErr
}

func newTestService(cfg Config, tools *fakeTools) *Service {
	svc := NewService(cfg)
	svc.WithCommandRunner(tools.run)
	svc.WithOutputRunner(tools.output)
	return svc
}

func mustRange(t *testing.T, start, duration string) timerange.Range {
	t.Helper()
	rng, err := timerange.Parse(start, duration)
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}
	return rng
}

func TestFetchUnboundedDownloadsWholeSource(t *testing.T) {
	tools := &fakeTools{}
	svc := newTestService(Config{EmbedMetadata: true}, tools)

	if err := svc.Fetch(context.Background(), "https://example.com/vod/1", timerange.Full(), "/work/source.mp4"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(tools.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(tools.calls))
	}
	got := tools.calls[0]
	want := []string{
		"-f", DefaultFormatSelector,
		"--embed-thumbnail", "--embed-chapters",
		"--merge-output-format", "mp4",
		"-o", "/work/source.mp4",
		"https://example.com/vod/1",
	}
	if got.name != "yt-dlp" || !reflect.DeepEqual(got.args, want) {
		t.Fatalf("unexpected download invocation %s %v", got.name, got.args)
	}
}

func TestDownloadWithoutMetadata(t *testing.T) {
	tools := &fakeTools{}
	svc := newTestService(Config{}, tools)
	if err := svc.Download(context.Background(), "u", "d.mp4"); err != nil {
		t.Fatalf("Download: %v", err)
	}
	joined := strings.Join(tools.calls[0].args, " ")
	if strings.Contains(joined, "--embed-thumbnail") {
		t.Fatalf("did not expect metadata flags: %s", joined)
	}
}

func TestFetchBoundedTwoStreams(t *testing.T) {
	tools := &fakeTools{stdout: "https://cdn/v.m3u8\n\nhttps://cdn/a.m3u8\n"}
	svc := newTestService(Config{Downloader: "dl", Transcoder: "tc"}, tools)

	err := svc.Fetch(context.Background(), "https://example.com/vod/2", mustRange(t, "00:01:30", "60"), "/work/source.mp4")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected resolve + clip, got %d calls", len(tools.calls))
	}
	resolve := tools.calls[0]
	if resolve.name != "dl" || !reflect.DeepEqual(resolve.args, []string{"-g", "-f", DefaultStreamSelector, "https://example.com/vod/2"}) {
		t.Fatalf("unexpected resolve invocation %s %v", resolve.name, resolve.args)
	}
	clip := tools.calls[1]
	want := []string{
		"-y",
		"-ss", "00:01:30", "-i", "https://cdn/v.m3u8",
		"-ss", "00:01:30", "-i", "https://cdn/a.m3u8",
		"-map", "0:v:0", "-map", "1:a:0",
		"-t", "60",
		"-c:v", "libx264", "-c:a", "aac",
		"/work/source.mp4",
	}
	if clip.name != "tc" || !reflect.DeepEqual(clip.args, want) {
		t.Fatalf("unexpected clip invocation %s %v", clip.name, clip.args)
	}
}

func TestFetchBoundedCombinedStream(t *testing.T) {
	tools := &fakeTools{stdout: "https://cdn/muxed.m3u8\n"}
	svc := newTestService(Config{}, tools)

	if err := svc.Fetch(context.Background(), "u", mustRange(t, "10", "5"), "out.mp4"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	clip := tools.calls[1]
	want := []string{
		"-y",
		"-ss", "00:00:10", "-i", "https://cdn/muxed.m3u8",
		"-map", "0:v:0", "-map", "0:a:0",
		"-t", "5",
		"-c:v", "libx264", "-c:a", "aac",
		"out.mp4",
	}
	if !reflect.DeepEqual(clip.args, want) {
		t.Fatalf("unexpected clip args %v", clip.args)
	}
}

func TestFetchUnboundedIgnoresStartOffset(t *testing.T) {
	tools := &fakeTools{stdout: "v\na\n"}
	svc := newTestService(Config{}, tools)

	if err := svc.Fetch(context.Background(), "u", mustRange(t, "00:05:00", "-1"), "out.mp4"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(tools.calls) != 1 || tools.calls[0].args[0] != "-f" {
		t.Fatalf("expected a single full download, got %v", tools.calls)
	}
}

func TestClipRequiresBoundedRange(t *testing.T) {
	tools := &fakeTools{}
	svc := newTestService(Config{}, tools)
	err := svc.Clip(context.Background(), Streams{Video: "v"}, timerange.Full(), "out.mp4")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(tools.calls) != 0 {
		t.Fatal("transcoder should not run for an unbounded clip")
	}
}

func TestFetchRejectsUnexpectedStreamCounts(t *testing.T) {
	for _, stdout := range []string{"", "\n\n", "a\nb\nc\n"} {
		tools := &fakeTools{stdout: stdout}
		svc := newTestService(Config{}, tools)
		err := svc.Fetch(context.Background(), "u", mustRange(t, "0", "30"), "out.mp4")
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("stdout %q: expected validation error, got %v", stdout, err)
		}
		if services.ExitCode(err) != 1 {
			t.Fatalf("stdout %q: expected exit 1, got %d", stdout, services.ExitCode(err))
		}
		if len(tools.calls) != 1 {
			t.Fatalf("stdout %q: transcoder should not run, got %d calls", stdout, len(tools.calls))
		}
	}
}

func TestFetchRejectsEmptyURL(t *testing.T) {
	tools := &fakeTools{}
	svc := newTestService(Config{}, tools)
	if err := svc.Fetch(context.Background(), "  ", timerange.Full(), "out.mp4"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(tools.calls) != 0 {
		t.Fatal("no tool should run for an empty url")
	}
}

func TestFetchPropagatesToolExitStatus(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 4").Run()
	tools := &fakeTools{runErr: exitErr}
	svc := newTestService(Config{}, tools)

	err := svc.Fetch(context.Background(), "u", timerange.Full(), "out.mp4")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if code := services.ExitCode(err); code != 4 {
		t.Fatalf("expected exit status 4, got %d", code)
	}
}

func TestResolveFailurePropagates(t *testing.T) {
	exitErr := exec.Command("sh", "-c", "exit 2").Run()
	tools := &fakeTools{outErr: exitErr}
	svc := newTestService(Config{}, tools)

	err := svc.Fetch(context.Background(), "u", mustRange(t, "0", "10"), "out.mp4")
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected exit status 2, got %v", err)
	}
	if len(tools.calls) != 1 {
		t.Fatalf("clip should not run after failed resolve")
	}
}

func TestParseStreams(t *testing.T) {
	streams, err := ParseStreams("  https://v  \r\nhttps://a\n")
	if err != nil {
		t.Fatalf("ParseStreams: %v", err)
	}
	if streams.Video != "https://v" || streams.Audio != "https://a" || streams.Combined() {
		t.Fatalf("unexpected streams %+v", streams)
	}
	streams, err = ParseStreams("https://only\n")
	if err != nil || !streams.Combined() {
		t.Fatalf("expected combined stream, got %+v %v", streams, err)
	}
}
