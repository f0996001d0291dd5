package properties

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings are the service-level knobs read from the environment. Run inputs
// (parcel file, date range, output folder) come from the command line and
// deliberately have no environment fallback.
type Settings struct {
	STACAPIURL     string        `env:"STAC_API_URL" envDefault:"https://earth-search.aws.element84.com/v1"`
	STACCollection string        `env:"STAC_COLLECTION" envDefault:"sentinel-2-l2a"`
	MaxCloudCover  float64       `env:"MAX_CLOUD_COVER" envDefault:"50"`
	SearchLimit    int           `env:"STAC_SEARCH_LIMIT" envDefault:"100"`
	SearchRetries  int           `env:"STAC_SEARCH_RETRIES" envDefault:"3"`
	RetryDelay     time.Duration `env:"STAC_RETRY_DELAY" envDefault:"2s"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"60s"`

	// Only needed for catalogs behind OAuth2 client credentials. The public
	// Earth Search endpoint works without any of them.
	STACClientID     string `env:"STAC_CLIENT_ID"`
	STACClientSecret string `env:"STAC_CLIENT_SECRET"`
	STACTokenURL     string `env:"STAC_TOKEN_URL"`

	VSIBlockSize    string `env:"VSI_BLOCK_SIZE" envDefault:"512k"`
	VSICachedBlocks int    `env:"VSI_CACHED_BLOCKS" envDefault:"100"`

	DiscordErrorNotificationURL   string `env:"DISCORD_ERROR_NOTIFICATION_URL"`
	DiscordSuccessNotificationURL string `env:"DISCORD_SUCCESS_NOTIFICATION_URL"`
}

func Load() (Settings, error) {
	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse environment settings: %w", err)
	}
	return settings, nil
}
