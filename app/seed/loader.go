package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed is one entry of the startup seed file.
type Feed struct {
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Security bool   `yaml:"security"`
}

type seedFile struct {
	Feeds []Feed `yaml:"feeds"`
}

// Load reads the YAML seed file at path. A missing file is not an error:
// seeding is optional and an empty list is returned.
func Load(path string) ([]Feed, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	for i, feed := range file.Feeds {
		if feed.URL == "" {
			return nil, fmt.Errorf("feed %d: url is required", i)
		}
	}

	return file.Feeds, nil
}
