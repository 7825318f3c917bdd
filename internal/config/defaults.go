package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:        "info",
			DefaultProvider: "gemini",
		},
		Twitter: TwitterConfig{
			APIBase:        "https://api.twitter.com",
			BearerToken:    "${X_BEARER_TOKEN}",
			TargetUserID:   "${TARGET_USER_ID}",
			TimeoutSeconds: 30,
		},
		Providers: map[string]ProviderConfig{
			"gemini": {
				Enabled:        true,
				APIKey:         "${GEMINI_API_KEY}",
				DefaultModel:   "gemini-1.5-flash",
				TimeoutSeconds: 60,
			},
			"openai": {
				Enabled:        false,
				APIKey:         "${OPENAI_API_KEY}",
				DefaultModel:   "gpt-4o-mini",
				TimeoutSeconds: 60,
			},
			"ollama": {
				Enabled:        true,
				APIBase:        "http://localhost:11434",
				DefaultModel:   "llama3.1:8b",
				TimeoutSeconds: 120,
			},
		},
		Market: MarketConfig{
			Timezone: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
		},
		State: StateConfig{
			Backend: "file",
			Path:    "~/.tradebot/processed_tweets.json",
			DBPath:  "~/.tradebot/tradebot.db",
		},
		Daemon: DaemonConfig{
			IntervalSeconds: 300,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9135",
		},
		Notify: NotifyConfig{
			Telegram: TelegramNotifyConfig{
				Enabled: false,
			},
		},
	}
}
