package price

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"os"
)

const (
	KindHTML        = "html"
	KindCoinpaprika = "coinpaprika"
)

// Source describes where the prices of one platform come from
type Source struct {
	Platform string `yaml:"platform"`
	Kind     string `yaml:"kind"`

	// html sources; {query} in URL is replaced by the escaped product name
	URL            string `yaml:"url"`
	ItemSelector   string `yaml:"item_selector"`
	SellerSelector string `yaml:"seller_selector"`
	PriceSelector  string `yaml:"price_selector"`
	PriceAttr      string `yaml:"price_attr"`
	LinkSelector   string `yaml:"link_selector"`
	Seller         string `yaml:"seller"`
	DecimalComma   bool   `yaml:"decimal_comma"`
	Render         bool   `yaml:"render"`

	// coinpaprika sources
	Quote string `yaml:"quote"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the sources section of a watchlist file.
// A missing file yields no sources.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read watchlist %s", path)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "could not parse watchlist %s", path)
	}

	for i, s := range f.Sources {
		if s.Platform == "" {
			return nil, errors.Errorf("source %d: platform is required", i)
		}
		if s.Kind == "" {
			f.Sources[i].Kind = KindHTML
		}
		if f.Sources[i].Kind == KindHTML && (s.URL == "" || s.ItemSelector == "" || s.PriceSelector == "") {
			return nil, errors.Errorf("source %s: url, item_selector and price_selector are required", s.Platform)
		}
	}
	return f.Sources, nil
}

// Options holds the collaborators sources may need
type Options struct {
	PaprikaAPIKey string
	BrowserRender bool
}

// Build creates a Multi fetcher out of the configured sources
func Build(sources []Source, opts Options) (*Multi, error) {
	m := NewMulti()
	for _, s := range sources {
		switch s.Kind {
		case KindHTML:
			var loader PageLoader = NewHTTPLoader()
			if s.Render || opts.BrowserRender {
				loader = NewBrowserLoader()
			}
			m.Register(s.Platform, NewScraper(s, loader))
		case KindCoinpaprika:
			m.Register(s.Platform, NewPaprikaFetcher(s.Platform, s.Quote, opts.PaprikaAPIKey))
		default:
			return nil, errors.Errorf("source %s: unknown kind %q", s.Platform, s.Kind)
		}
	}
	return m, nil
}
