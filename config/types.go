package config

// StorageConfig contains on-disk storage locations
type StorageConfig struct {
	DataDir    string `yaml:"dataDir"`
	MetadataDB string `yaml:"metadataDB"`
}

// FetchConfig contains HTTP fetch configuration shared by all feeds
type FetchConfig struct {
	TimeoutMS int `yaml:"timeoutMS" validate:"gte=0"`
}

// FeedDescriptor identifies one GTFS-RT vehicle-positions feed.
// Descriptors are loaded once at startup and never mutated.
type FeedDescriptor struct {
	Name     string            `yaml:"name" validate:"required"`
	URL      string            `yaml:"url" validate:"required,url"`
	APIToken string            `yaml:"api_token"`
	Headers  map[string]string `yaml:"headers"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Storage StorageConfig    `yaml:"storage"`
	Fetch   FetchConfig      `yaml:"fetch"`
	Feeds   []FeedDescriptor `yaml:"feeds"`
}
