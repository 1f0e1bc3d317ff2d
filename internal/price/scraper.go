package price

import (
	"competitor-price-monitor/internal/types"
	"context"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// Scraper reads competitor offers out of a search or listing page
type Scraper struct {
	source Source
	loader PageLoader
	now    func() time.Time
}

// NewScraper creates a scraper for an html source
func NewScraper(source Source, loader PageLoader) *Scraper {
	return &Scraper{source: source, loader: loader, now: time.Now}
}

// Fetch loads the listing page of a product and returns one observation per offer.
// Offers without a readable price are skipped.
func (s *Scraper) Fetch(ctx context.Context, productName string) ([]types.Observation, error) {
	pageURL := strings.ReplaceAll(s.source.URL, "{query}", url.QueryEscape(productName))

	page, err := s.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load %s", pageURL)
	}

	return s.parse(pageURL, page)
}

func (s *Scraper) parse(pageURL, page string) ([]types.Observation, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse page")
	}

	base, _ := url.Parse(pageURL)
	checkedAt := s.now()
	observations := make([]types.Observation, 0)

	doc.Find(s.source.ItemSelector).Each(func(i int, item *goquery.Selection) {
		priceSel := item.Find(s.source.PriceSelector).First()
		priceText := strings.TrimSpace(priceSel.Text())
		if s.source.PriceAttr != "" {
			priceText = priceSel.AttrOr(s.source.PriceAttr, priceText)
		}

		p, err := ParsePrice(priceText, s.source.DecimalComma)
		if err != nil {
			log.Debugf("%s: skipping offer %d: %v", s.source.Platform, i, err)
			return
		}

		seller := s.source.Seller
		if s.source.SellerSelector != "" {
			seller = strings.TrimSpace(item.Find(s.source.SellerSelector).First().Text())
		}

		observations = append(observations, types.Observation{
			Platform:  s.source.Platform,
			Seller:    seller,
			Price:     p,
			SourceURL: resolveLink(base, item, s.source.LinkSelector, pageURL),
			CheckedAt: checkedAt,
		})
	})

	return observations, nil
}

func resolveLink(base *url.URL, item *goquery.Selection, selector, fallback string) string {
	if selector == "" || base == nil {
		return fallback
	}
	href, ok := item.Find(selector).First().Attr("href")
	if !ok {
		return fallback
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return fallback
	}
	return base.ResolveReference(ref).String()
}

// ParsePrice turns a displayed price such as "R$ 1.299,90" or "$1,299.90" into a number.
// decimalComma selects the separator convention of the page.
func ParsePrice(text string, decimalComma bool) (float64, error) {
	clean := strings.TrimSpace(text)
	if decimalComma {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}
	clean = nonNumeric.ReplaceAllString(clean, "")

	if clean == "" {
		return 0, errors.Errorf("no price in %q", text)
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, errors.Wrapf(err, "could not parse price %q", text)
	}
	if !d.IsPositive() {
		return 0, errors.Errorf("price %q is not positive", text)
	}
	return d.InexactFloat64(), nil
}
