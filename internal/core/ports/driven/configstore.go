package driven

// ConfigStore provides access to application configuration.
// Keys are dot-separated paths into the configuration file ("pipeline.top_k").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if absent or not a string.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if absent or not numeric.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 if absent or not numeric.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false if absent.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice value, or nil if absent.
	GetStringSlice(key string) []string

	// Set stores a configuration value and persists it.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
