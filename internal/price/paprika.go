package price

import (
	"competitor-price-monitor/internal/types"
	"context"
	"fmt"
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"strings"
	"sync"
	"time"
)

// PaprikaFetcher quotes products that are listed on CoinPaprika
type PaprikaFetcher struct {
	platform string
	quote    string
	client   *coinpaprika.Client

	idMutex   sync.RWMutex
	idMapping map[string]string // product name -> coin id
}

// NewPaprikaFetcher creates a fetcher quoting in quote (USD when empty)
func NewPaprikaFetcher(platform, quote, apiProKey string) *PaprikaFetcher {
	if quote == "" {
		quote = "USD"
	}

	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(nil)
	}

	return &PaprikaFetcher{
		platform:  platform,
		quote:     strings.ToUpper(quote),
		client:    client,
		idMapping: make(map[string]string),
	}
}

// Fetch returns the current ticker price of the coin best matching productName
func (f *PaprikaFetcher) Fetch(ctx context.Context, productName string) ([]types.Observation, error) {
	id, err := f.coinID(productName)
	if err != nil {
		return nil, err
	}

	ticker, err := f.client.Tickers.GetByID(id, &coinpaprika.TickersOptions{Quotes: f.quote})
	if err != nil {
		return nil, errors.Wrapf(err, "could not get ticker %s", id)
	}

	q, ok := ticker.Quotes[f.quote]
	if !ok || q.Price == nil {
		log.Debugf("ticker %s has no %s price", id, f.quote)
		return []types.Observation{}, nil
	}

	return []types.Observation{{
		Platform:  f.platform,
		Seller:    "CoinPaprika " + f.quote,
		Price:     *q.Price,
		SourceURL: fmt.Sprintf("https://coinpaprika.com/coin/%s/", id),
		CheckedAt: time.Now(),
	}}, nil
}

func (f *PaprikaFetcher) coinID(productName string) (string, error) {
	f.idMutex.RLock()
	id, exists := f.idMapping[productName]
	f.idMutex.RUnlock()
	if exists {
		return id, nil
	}

	coin, err := f.searchCoin(productName)
	if err != nil {
		return "", err
	}

	f.idMutex.Lock()
	f.idMapping[productName] = *coin.ID
	f.idMutex.Unlock()

	log.Debugf("Best match for product '%s' is: %s", productName, *coin.ID)
	return *coin.ID, nil
}

// searchCoin tries a symbol search first and falls back to a name search
func (f *PaprikaFetcher) searchCoin(query string) (*coinpaprika.Coin, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      query,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := f.client.Search.Search(searchOpts)
	if err != nil || len(result.Currencies) == 0 {
		searchOpts = &coinpaprika.SearchOptions{Query: query, Categories: "currencies"}
		result, err = f.client.Search.Search(searchOpts)
		if err != nil || len(result.Currencies) == 0 {
			return nil, errors.Errorf("no coin matches %s", query)
		}
	}

	coin := result.Currencies[0]
	if coin.ID == nil {
		return nil, errors.Errorf("no coin matches %s", query)
	}
	return coin, nil
}
