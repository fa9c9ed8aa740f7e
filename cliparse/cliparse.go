package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

// ServerConfig holds settings for the session store API server.
type ServerConfig struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	OperatorKeySalt string
	SessionCodeSalt string
}

// KioskConfig holds settings for one on-site display process.
type KioskConfig struct {
	ServerURL    string
	LocationSlug string
	PollInterval time.Duration

	CountdownSeconds int // 0 = server default
	LiveSeconds      int // 0 = server default

	CachePath string

	EncoderURL        string
	EncoderPassword   string
	SceneAttract      string
	SceneLive         string
	SceneReveal       string
	StreamServer      string
	StreamKey         string
	StreamServiceType string
}

// ParseServerFlags validates flags and environment for the API server.
func ParseServerFlags(args []string) (ServerConfig, error) {
	var cfg ServerConfig

	fs := flag.NewFlagSet("riplive-server", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.OperatorKeySalt, "operator-salt", "", "Operator key salt (prefer env)")
	fs.StringVar(&cfg.SessionCodeSalt, "code-salt", "", "Session code salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return ServerConfig{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3380 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return ServerConfig{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "sqlite" {
			cfg.DatabaseURL = "riplive.db"
		} else {
			return ServerConfig{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	}

	// Secrets - MUST be provided
	if cfg.OperatorKeySalt == "" {
		cfg.OperatorKeySalt = os.Getenv("OPERATOR_KEY_SALT")
	}
	if cfg.OperatorKeySalt == "" {
		return ServerConfig{}, errors.New("OPERATOR_KEY_SALT required")
	}

	if cfg.SessionCodeSalt == "" {
		cfg.SessionCodeSalt = os.Getenv("SESSION_CODE_SALT")
	}
	if cfg.SessionCodeSalt == "" {
		return ServerConfig{}, errors.New("SESSION_CODE_SALT required")
	}

	return cfg, nil
}

// ParseKioskFlags validates flags and environment for the display process.
func ParseKioskFlags(args []string) (KioskConfig, error) {
	var cfg KioskConfig
	var pollSeconds int

	fs := flag.NewFlagSet("riplive-kiosk", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "s", "", "Session store API base URL")
	fs.StringVar(&cfg.LocationSlug, "l", "", "Location slug for this kiosk")
	fs.IntVar(&pollSeconds, "poll", 0, "Display snapshot poll interval in seconds")
	fs.IntVar(&cfg.CountdownSeconds, "countdown", 0, "Countdown window (0 = server default)")
	fs.IntVar(&cfg.LiveSeconds, "live", 0, "Live window (0 = server default)")
	fs.StringVar(&cfg.CachePath, "cache", "", "Directory for the local recovery cache")

	fs.StringVar(&cfg.EncoderURL, "encoder", "", "Encoder control socket URL (empty disables streaming)")
	fs.StringVar(&cfg.SceneAttract, "scene-attract", "", "Attract/standby scene name")
	fs.StringVar(&cfg.SceneLive, "scene-live", "", "Countdown/live scene name")
	fs.StringVar(&cfg.SceneReveal, "scene-reveal", "", "Reveal scene name")

	if err := fs.Parse(args); err != nil {
		return KioskConfig{}, err
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv("SERVER_URL")
	}
	if cfg.ServerURL == "" {
		return KioskConfig{}, errors.New("server URL required (use -s or SERVER_URL env)")
	}

	if cfg.LocationSlug == "" {
		cfg.LocationSlug = os.Getenv("LOCATION_SLUG")
	}
	if cfg.LocationSlug == "" {
		return KioskConfig{}, errors.New("location slug required (use -l or LOCATION_SLUG env)")
	}

	if pollSeconds == 0 {
		if s := os.Getenv("POLL_SECONDS"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return KioskConfig{}, errors.New("invalid POLL_SECONDS env variable")
			}
			pollSeconds = v
		} else {
			pollSeconds = 3
		}
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	if cfg.CachePath == "" {
		cfg.CachePath = os.Getenv("CACHE_PATH")
	}
	if cfg.CachePath == "" {
		cfg.CachePath = "kiosk-state"
	}

	if cfg.EncoderURL == "" {
		cfg.EncoderURL = os.Getenv("ENCODER_URL")
	}
	// Secrets stay in the environment
	cfg.EncoderPassword = os.Getenv("ENCODER_PASSWORD")
	cfg.StreamServer = os.Getenv("STREAM_SERVER")
	cfg.StreamKey = os.Getenv("STREAM_KEY")
	cfg.StreamServiceType = os.Getenv("STREAM_SERVICE_TYPE")

	if cfg.SceneAttract == "" {
		cfg.SceneAttract = envOr("SCENE_ATTRACT", "Attract")
	}
	if cfg.SceneLive == "" {
		cfg.SceneLive = envOr("SCENE_LIVE", "Live Rip")
	}
	if cfg.SceneReveal == "" {
		cfg.SceneReveal = envOr("SCENE_REVEAL", "Reveal")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
