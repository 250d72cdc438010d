package generator

import (
	"io"

	yaml "gopkg.in/yaml.v2"
)

type Tenant struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ServiceKey string `yaml:"serviceKey"`
	Cache      bool   `yaml:"cache"`
	PageSize   int    `yaml:"pageSize"`
	Debug      bool   `yaml:"debug"`
}

type Config struct {
	Tenants []Tenant `yaml:"tenants"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}

// SingleTenant builds a configuration for one service key, used when the
// tool is run without a configuration file.
func SingleTenant(serviceKeyFile string, cache bool) Config {
	return Config{
		Tenants: []Tenant{
			{
				ID:         DefaultTenant,
				Name:       DefaultTenant,
				ServiceKey: serviceKeyFile,
				Cache:      cache,
			},
		},
	}
}
