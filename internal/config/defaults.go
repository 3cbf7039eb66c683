package config

const (
	defaultStagingDir           = "~/.local/share/yt2tg/staging"
	defaultLogDir               = "~/.local/share/yt2tg/logs"
	defaultStateFile            = "~/.local/share/yt2tg/last_seen.json"
	defaultFeedRequestTimeout   = 30
	defaultTelegramAPIBaseURL   = "https://api.telegram.org"
	defaultUploadTimeout        = 300
	defaultRetryAttempts        = 3
	defaultRetryBaseDelay       = 2
	defaultYtDlpBinary          = "yt-dlp"
	defaultAudioBitrate         = "192K"
	defaultDownloadTimeout      = 1800
	defaultProbeTimeout         = 120
	defaultPollInterval         = 300
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			StateFile:  defaultStateFile,
		},
		YouTube: YouTube{
			RequestTimeout: defaultFeedRequestTimeout,
		},
		Telegram: Telegram{
			APIBaseURL:     defaultTelegramAPIBaseURL,
			UploadTimeout:  defaultUploadTimeout,
			RetryAttempts:  defaultRetryAttempts,
			RetryBaseDelay: defaultRetryBaseDelay,
		},
		YtDlp: YtDlp{
			Binary:          defaultYtDlpBinary,
			AudioBitrate:    defaultAudioBitrate,
			DownloadTimeout: defaultDownloadTimeout,
			ProbeTimeout:    defaultProbeTimeout,
			WriteThumbnail:  true,
		},
		Workflow: Workflow{
			PollInterval: defaultPollInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Delivery:       true,
			Cycle:          false,
			Errors:         true,
		},
	}
}
