package fetch

// Config captures runtime settings for fetching a source.
type Config struct {
	// Downloader is the stream downloader executable (yt-dlp).
	Downloader string
	// Transcoder is the media transcoder executable used for bounded clips.
	Transcoder string
	// FormatSelector is the downloader format expression for full downloads.
	FormatSelector string
	// StreamSelector is the format expression used to resolve direct stream URLs.
	StreamSelector string
	// VideoCodec and AudioCodec are the encoders applied to bounded clips.
	VideoCodec string
	AudioCodec string
	// EmbedMetadata embeds the thumbnail and chapter markers on full downloads.
	EmbedMetadata bool
}

// Defaults applied when a Config field is empty.
const (
	DefaultDownloader     = "yt-dlp"
	DefaultTranscoder     = "ffmpeg"
	DefaultFormatSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	DefaultStreamSelector = "bestvideo+bestaudio/best"
	DefaultVideoCodec     = "libx264"
	DefaultAudioCodec     = "aac"
	MergeOutputFormat     = "mp4"
)

func (c Config) withDefaults() Config {
	if c.Downloader == "" {
		c.Downloader = DefaultDownloader
	}
	if c.Transcoder == "" {
		c.Transcoder = DefaultTranscoder
	}
	if c.FormatSelector == "" {
		c.FormatSelector = DefaultFormatSelector
	}
	if c.StreamSelector == "" {
		c.StreamSelector = DefaultStreamSelector
	}
	if c.VideoCodec == "" {
		c.VideoCodec = DefaultVideoCodec
	}
	if c.AudioCodec == "" {
		c.AudioCodec = DefaultAudioCodec
	}
	return c
}
