package config

const (
	defaultConfigPath      = "~/.config/vodsub/config.toml"
	projectConfigName      = "vodsub.toml"
	defaultResultsDir      = "results"
	defaultDownloader      = "yt-dlp"
	defaultTranscoder      = "ffmpeg"
	defaultSpeechEngine    = "whisper-cli"
	defaultFormatSelector  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultStreamSelector  = "bestvideo+bestaudio/best"
	defaultVideoCodec      = "libx264"
	defaultAudioCodec      = "aac"
	defaultModelPath       = "models/ggml-base.bin"
	defaultSpeechLanguage  = "en"
	defaultSpeechThreads   = 8
	defaultOutputFileName  = "result.mp4"
	defaultSubtitleCodec   = "mov_text"
	defaultStaleAfterHours = 24
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Environment variables that override file configuration.
const (
	EnvModelPath    = "VODSUB_MODEL"
	EnvSpeechEngine = "VODSUB_WHISPER"
	EnvLanguage     = "VODSUB_LANGUAGE"
	EnvThreads      = "VODSUB_THREADS"
	EnvWorkDir      = "VODSUB_WORK_DIR"
	EnvResultsDir   = "VODSUB_RESULTS_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:    defaultWorkDir(),
			ResultsDir: defaultResultsDir,
			StateDir:   defaultStateDir(),
		},
		Tools: Tools{
			Downloader:   defaultDownloader,
			Transcoder:   defaultTranscoder,
			SpeechEngine: defaultSpeechEngine,
		},
		Fetch: Fetch{
			FormatSelector: defaultFormatSelector,
			StreamSelector: defaultStreamSelector,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			EmbedMetadata:  true,
		},
		Speech: Speech{
			ModelPath: defaultModelPath,
			Language:  defaultSpeechLanguage,
			Threads:   defaultSpeechThreads,
			Translate: true,
		},
		Output: Output{
			FileName:      defaultOutputFileName,
			SubtitleCodec: defaultSubtitleCodec,
		},
		Workspace: Workspace{
			StaleAfterHours: defaultStaleAfterHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
