package transcribe

// Config captures runtime settings for the speech engine.
type Config struct {
	// Binary is the speech engine executable (whisper.cpp CLI).
	Binary string
	// ModelPath points at the ggml model file.
	ModelPath string
	// Language is the spoken language, or "auto" to let the engine detect it.
	Language string
	// Threads is passed through as the engine's thread count hint.
	Threads int
	// Translate asks the engine to translate the transcript to English.
	Translate bool
}

// Defaults applied when a Config field is empty.
const (
	DefaultBinary   = "whisper-cli"
	DefaultLanguage = "en"
	DefaultThreads  = 8
	SubtitleSuffix  = ".srt"
)
