package config

// Secret store coordinates of the OpenRouter API key.
const (
	secretService = "interviewd"
	secretAccount = "openrouter_api_key"
)

// ConfigBackend persists non-secret keys as strings under their dotted names,
// e.g. "interview.analysis_timeout". macOS stores them in UserDefaults, other
// platforms in a JSON file. Values are parsed by the key table on load.
type ConfigBackend interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
	Delete(key string) error
}
