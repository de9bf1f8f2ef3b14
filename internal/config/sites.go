package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// LoadSites reads the site definitions from a YAML file. Sites that carry
// neither a homepage URL nor a feed are dropped with their index reported in
// the returned skipped slice; they never reach the fleet.
func LoadSites(path string) (sites []types.SiteDefinition, skipped []int, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var raw struct {
		Sites []types.SiteDefinition `mapstructure:"sites"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal sites file: %w", err)
	}

	for i, s := range raw.Sites {
		if !s.Actionable() {
			skipped = append(skipped, i)
			continue
		}
		sites = append(sites, s)
	}
	return sites, skipped, nil
}
