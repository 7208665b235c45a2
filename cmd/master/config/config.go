package config

type LRUConfig struct {
	Size int `yaml:"size"`
}

func (LRUConfig) Key() string {
	return "lru"
}
