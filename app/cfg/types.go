package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Watch configuration
	ConfigDir string

	// Scheduling
	CycleInterval      int // seconds between cycles
	KeywordConcurrency int // concurrent keyword searches per cycle
	PlatformPause      int // seconds between platform calls within a keyword
	KeywordPause       int // seconds between keywords
	RequestTimeout     int // seconds per network call

	// HTTP API
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
