package config

const (
	defaultWorkDir       = "~/.local/share/reelsmith/work"
	defaultOutputDir     = "~/reels"
	defaultLogDir        = "~/.local/share/reelsmith/logs"
	defaultAssetCacheDir = "~/.cache/reelsmith/assets"
	defaultAPIBind       = "127.0.0.1:7519"

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-3-flash-preview"
	defaultLLMReferer        = "https://github.com/reelsmith/reelsmith"
	defaultLLMTitle          = "Reelsmith Script Writer"
	defaultLLMTimeoutSeconds = 60

	defaultTTSBaseURL        = "https://api.elevenlabs.io"
	defaultTTSModelID        = "eleven_multilingual_v2"
	defaultTTSOutputFormat   = "mp3_44100_128"
	defaultTTSTimeoutSeconds = 120

	defaultWhisperModel          = "large-v3-turbo"
	defaultWhisperTimeoutSeconds = 600

	defaultStockBaseURL        = "https://api.pexels.com"
	defaultStockClipsPerItem   = 4
	defaultStockOrientation    = "portrait"
	defaultStockTimeoutSeconds = 120

	defaultPublishTokenPath      = "~/.config/reelsmith/youtube_token.json"
	defaultPublishPrivacy        = "unlisted"
	defaultPublishCategoryID     = "22"
	defaultPublishTimeoutSeconds = 600

	defaultCaptionMaxCharsPerLine = 25
	defaultCaptionMaxCueDuration  = 4.0
	defaultCaptionMaxLinesPerCue  = 1
	defaultCaptionLookahead       = 2
	defaultCaptionSmoothingGap    = 0.05
	defaultCaptionTimingSource    = "auto"

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultMaxConcurrentItems = 3

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:       defaultWorkDir,
			OutputDir:     defaultOutputDir,
			LogDir:        defaultLogDir,
			AssetCacheDir: defaultAssetCacheDir,
			APIBind:       defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			ModelID:        defaultTTSModelID,
			OutputFormat:   defaultTTSOutputFormat,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		Whisper: Whisper{
			Enabled:        true,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeoutSeconds,
		},
		Stock: Stock{
			Enabled:        true,
			BaseURL:        defaultStockBaseURL,
			ClipsPerItem:   defaultStockClipsPerItem,
			Orientation:    defaultStockOrientation,
			TimeoutSeconds: defaultStockTimeoutSeconds,
		},
		Publish: Publish{
			TokenPath:      defaultPublishTokenPath,
			Privacy:        defaultPublishPrivacy,
			CategoryID:     defaultPublishCategoryID,
			TimeoutSeconds: defaultPublishTimeoutSeconds,
		},
		Captions: Captions{
			MaxCharsPerLine: defaultCaptionMaxCharsPerLine,
			MaxCueDuration:  defaultCaptionMaxCueDuration,
			MaxLinesPerCue:  defaultCaptionMaxLinesPerCue,
			Lookahead:       defaultCaptionLookahead,
			SmoothingGap:    defaultCaptionSmoothingGap,
			TimingSource:    defaultCaptionTimingSource,
			BurnIn:          true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			MaxConcurrentItems: defaultMaxConcurrentItems,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Scripting:      true,
			Narration:      true,
			Captioning:     true,
			Assembly:       true,
			Publishing:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
