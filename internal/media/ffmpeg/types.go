package ffmpeg

// VideoInfo contains the metadata the pipeline needs from a source file.
type VideoInfo struct {
	Path       string
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	SizeMB     float64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// AudioFormat defines audio extraction parameters.
type AudioFormat struct {
	Codec      string
	SampleRate int
	Channels   int
}

// TranscriptionFormat returns the format the transcription engine expects:
// 16 kHz mono PCM.
func TranscriptionFormat() AudioFormat {
	return AudioFormat{
		Codec:      "pcm_s16le",
		SampleRate: 16000,
		Channels:   1,
	}
}

// RenderSpec describes one clip render. Width and Height are the source
// dimensions from the probe; Start and End are seconds in source time.
type RenderSpec struct {
	Source string
	Output string

	Start float64
	End   float64
	Speed float64

	Width  int
	Height int

	// SubtitlePath is an ASS file burned into the video; empty disables
	// subtitles. WatermarkPath is an image overlaid top-right; empty
	// disables the watermark.
	SubtitlePath  string
	WatermarkPath string
}

// Default encoding settings.
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultFPS        = 24

	// Target vertical aspect.
	TargetAspectW = 9
	TargetAspectH = 16

	WatermarkWidthRatio = 0.15
	WatermarkOpacity    = 0.7
	WatermarkMargin     = 20
)
