package fixtureparser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultChannelMap maps the names listings use to the broadcaster names shown in the UI.
// Keys are matched case-insensitively.
func DefaultChannelMap() map[string]string {
	return map[string]string{
		"bt sport 1":        "TNT Sports 1",
		"bt sport 2":        "TNT Sports 2",
		"bt sport 3":        "TNT Sports 3",
		"bt sport 4":        "TNT Sports 4",
		"bt sport ultimate": "TNT Sports Ultimate",
		"bt sport":          "TNT Sports",
		"bbc1":              "BBC One",
		"bbc 1":             "BBC One",
		"bbc2":              "BBC Two",
		"bbc 2":             "BBC Two",
		"itv":               "ITV1",
		"itv 1":             "ITV1",
		"itv 4":             "ITV4",
		"prime video":       "Amazon Prime Video",
		"amazon prime":      "Amazon Prime Video",
		"sky sports pl":     "Sky Sports Premier League",
		"sky sports me":     "Sky Sports Main Event",
		"sky sports f'ball": "Sky Sports Football",
	}
}

type channelFile struct {
	Channels map[string]string `yaml:"channels"`
}

// LoadChannelMap reads overrides from a YAML file of the form
//
//	channels:
//	  "BT Sport 1": "TNT Sports 1"
//
// and layers them over DefaultChannelMap.
func LoadChannelMap(path string) (map[string]string, error) {
	out := DefaultChannelMap()
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel map %s: %w", path, err)
	}
	var file channelFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode channel map %s: %w", path, err)
	}
	for from, to := range file.Channels {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.TrimSpace(to)
		if from == "" || to == "" {
			continue
		}
		out[from] = to
	}
	return out, nil
}

func (p *Parser) canonicalChannel(name string) string {
	if mapped, ok := p.channelMap[strings.ToLower(name)]; ok {
		return mapped
	}
	return name
}

// appendUnique keeps first-seen order and drops case-insensitive repeats.
func appendUnique(dst []string, seen map[string]struct{}, name string) []string {
	key := strings.ToLower(name)
	if _, ok := seen[key]; ok {
		return dst
	}
	seen[key] = struct{}{}
	return append(dst, name)
}
