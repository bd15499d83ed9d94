package testsupport

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Environment variables understood by the tool stubs.
const (
	// StubLogEnv names the file every stub appends its invocation to.
	StubLogEnv = "VODSUB_STUB_LOG"
	// StubStreamsEnv overrides the stream URLs printed in -g mode. Entries are
	// separated by "|" and printed one per line.
	StubStreamsEnv = "VODSUB_STUB_STREAMS"
	// StubExtractExitEnv makes the transcoder exit with the given status when
	// asked to produce a PCM waveform.
	StubExtractExitEnv = "VODSUB_STUB_EXTRACT_EXIT"
	// StubDownloadExitEnv makes the downloader exit with the given status.
	StubDownloadExitEnv = "VODSUB_STUB_DOWNLOAD_EXIT"
	// StubSpeechExitEnv makes the speech engine exit with the given status.
	StubSpeechExitEnv = "VODSUB_STUB_SPEECH_EXIT"
)

// ToolStubs holds absolute paths of the generated stub executables.
type ToolStubs struct {
	Dir          string
	Downloader   string
	Transcoder   string
	SpeechEngine string
}

const downloaderStub = `#!/bin/sh
[ -n "$VODSUB_STUB_LOG" ] && echo "yt-dlp $*" >> "$VODSUB_STUB_LOG"
if [ -n "$VODSUB_STUB_DOWNLOAD_EXIT" ]; then
  echo "stub download failure" >&2
  exit "$VODSUB_STUB_DOWNLOAD_EXIT"
fi
out=""
prev=""
for arg in "$@"; do
  if [ "$arg" = "-g" ]; then
    streams="${VODSUB_STUB_STREAMS-https://cdn.example.com/video.m3u8|https://cdn.example.com/audio.m3u8}"
    echo "$streams" | tr '|' '\n'
    exit 0
  fi
  if [ "$prev" = "-o" ]; then
    out="$arg"
  fi
  prev="$arg"
done
[ -n "$out" ] && printf 'container' > "$out"
exit 0
`

const transcoderStub = `#!/bin/sh
[ -n "$VODSUB_STUB_LOG" ] && echo "ffmpeg $*" >> "$VODSUB_STUB_LOG"
for arg in "$@"; do
  if [ "$arg" = "pcm_s16le" ] && [ -n "$VODSUB_STUB_EXTRACT_EXIT" ]; then
    echo "stub extract failure" >&2
    exit "$VODSUB_STUB_EXTRACT_EXIT"
  fi
done
for last in "$@"; do :; done
printf 'media' > "$last"
exit 0
`

const speechStub = `#!/bin/sh
[ -n "$VODSUB_STUB_LOG" ] && echo "whisper $*" >> "$VODSUB_STUB_LOG"
if [ -n "$VODSUB_STUB_SPEECH_EXIT" ]; then
  exit "$VODSUB_STUB_SPEECH_EXIT"
fi
prev=""
for arg in "$@"; do
  if [ "$prev" = "-f" ]; then
    printf '1\n00:00:00,000 --> 00:00:01,000\nhello\n' > "$arg.srt"
  fi
  prev="$arg"
done
exit 0
`

// WriteToolStubs writes shell stubs that mimic the external tools closely
// enough for pipeline tests: the downloader writes its -o target or prints
// stream URLs in -g mode, the transcoder writes its last argument, and the
// speech engine writes <input>.srt.
func WriteToolStubs(t testing.TB, dir string) ToolStubs {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	stubs := ToolStubs{
		Dir:          dir,
		Downloader:   filepath.Join(dir, "yt-dlp"),
		Transcoder:   filepath.Join(dir, "ffmpeg"),
		SpeechEngine: filepath.Join(dir, "whisper-cli"),
	}
	for path, script := range map[string]string{
		stubs.Downloader:   downloaderStub,
		stubs.Transcoder:   transcoderStub,
		stubs.SpeechEngine: speechStub,
	} {
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", path, err)
		}
	}
	return stubs
}

// ReadInvocations returns the lines recorded by the stubs in logPath. A
// missing log means no stub ran and yields nil.
func ReadInvocations(t testing.TB, logPath string) []string {
	t.Helper()
	file, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("open stub log: %v", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stub log: %v", err)
	}
	return lines
}
