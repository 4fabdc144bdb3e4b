package config

const (
	defaultWorkDir            = "~/.local/share/clipforge/work"
	defaultLogDir             = "~/.local/share/clipforge/logs"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultChatModel          = "gpt-4o-mini"
	defaultSpeechModel        = "tts-1"
	defaultImageModel         = "dall-e-3"
	defaultVoice              = "alloy"
	defaultOpenAITimeout      = 120
	defaultStorageRegion      = "us-east-1"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			ChatModel:      defaultChatModel,
			SpeechModel:    defaultSpeechModel,
			ImageModel:     defaultImageModel,
			DefaultVoice:   defaultVoice,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		Storage: Storage{
			Region: defaultStorageRegion,
			UseSSL: true,
		},
		Render: Render{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
