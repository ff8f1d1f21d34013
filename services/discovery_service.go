package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"mutualfund-backend/models"
	"mutualfund-backend/shared"
)

// Listing card selectors. The card anchor wraps every field the discovery
// stage needs; the class chains are the source of truth, not positions.
const (
	fundCardSelector   = "a.pos-rel.f22Link"
	fundNameSelector   = "div.contentPrimary.f22LH34.f22Mb4.truncate.bodyBaseHeavy"
	riskTypeSelector   = "div.contentSecondary.f22Ls2.contentTertiary.bodySmallHeavy"
	cardReturnSelector = "div.contentPrimary.center-align.f22Mb4.bodyBaseHeavy"
)

// FundDiscoveryService walks the paginated fund listing, extracts summary
// cards and deduplicates them by normalized identity. Discovery stops on
// the first page that yields zero cards or once maxCount funds are found.
type FundDiscoveryService struct {
	collector          *colly.Collector
	utility            *UtilityService
	listingURLTemplate string // fmt template taking the zero-based page number
	linkBase           string // prefix for relative card links
	pageDelay          time.Duration
	requestTimeout     time.Duration
	chromeFallback     bool
	metrics            *shared.ServiceMetrics
	logger             *logrus.Entry

	pageCards []models.FundSummary // accumulated during one page visit
}

// NewFundDiscoveryService creates a discovery service. pageDelay is the
// mandatory politeness delay inserted after every page fetch.
func NewFundDiscoveryService(cfg shared.ServiceConfig, utility *UtilityService, linkBase string, chromeFallback bool) *FundDiscoveryService {
	cfg.ValidateAndApplyDefaults()

	service := &FundDiscoveryService{
		utility:            utility,
		listingURLTemplate: cfg.BaseURL,
		linkBase:           linkBase,
		pageDelay:          cfg.RequestRateLimit,
		requestTimeout:     cfg.HTTPRequestTimeout,
		chromeFallback:     chromeFallback,
		metrics:            shared.NewServiceMetrics("FundDiscovery"),
		logger:             logrus.WithField("component", "FundDiscoveryService"),
	}

	// Revisits are allowed because scheduled runs walk the same page URLs.
	collector := colly.NewCollector(
		colly.UserAgent(shared.BrowserUserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.HTTPRequestTimeout)

	collector.OnHTML(fundCardSelector, func(e *colly.HTMLElement) {
		if card, ok := service.cardFromSelection(e.DOM, e.Attr("href")); ok {
			service.pageCards = append(service.pageCards, card)
		}
	})

	collector.OnError(func(response *colly.Response, err error) {
		service.logger.WithFields(logrus.Fields{
			"url":   response.Request.URL.String(),
			"error": err,
		}).Warn("Listing page fetch failed")
	})

	service.collector = collector
	return service
}

// DiscoverFunds walks listing pages from index 0 until a page yields zero
// cards or maxCount unique funds have been collected. Cards with malformed
// sub-fields still yield a best-effort summary; only a card without a name
// or link is skipped.
func (s *FundDiscoveryService) DiscoverFunds(maxCount int) []models.FundSummary {
	seen := make(map[models.FundIdentity]struct{})
	var funds []models.FundSummary

	for page := 0; len(funds) < maxCount; page++ {
		cards := s.fetchListingPage(page)

		if len(cards) == 0 && s.chromeFallback {
			s.logger.WithField("page", page+1).Info("Static listing page empty, retrying with headless render")
			cards = s.fetchListingPageRendered(page)
		}

		// The politeness delay applies whether or not the page had cards.
		time.Sleep(s.pageDelay)

		if len(cards) == 0 {
			s.logger.WithField("page", page+1).Info("No more funds to fetch, ending discovery")
			break
		}

		s.logger.WithFields(logrus.Fields{
			"page":  page + 1,
			"cards": len(cards),
		}).Info("Fetched listing page")

		for _, card := range cards {
			key := models.FundIdentity{
				Name: card.TrimmedName(),
				Slug: s.utility.NormalizeLinkSlug(card.Link),
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			funds = append(funds, card)
			if len(funds) >= maxCount {
				break
			}
		}
	}

	s.logger.WithField("fund_count", len(funds)).Info("Discovery completed after deduplication")
	return funds
}

// fetchListingPage visits one listing page and returns the cards found.
func (s *FundDiscoveryService) fetchListingPage(page int) []models.FundSummary {
	started := time.Now()
	s.pageCards = nil

	url := fmt.Sprintf(s.listingURLTemplate, page)
	if err := s.collector.Visit(url); err != nil {
		s.metrics.RecordRequest(false, time.Since(started))
		s.logger.WithFields(logrus.Fields{
			"page":  page + 1,
			"error": err,
		}).Warn("Failed to visit listing page")
		return nil
	}
	s.collector.Wait()

	s.metrics.RecordRequest(true, time.Since(started))
	return s.pageCards
}

// fetchListingPageRendered renders the page in headless Chrome and parses
// the resulting DOM. Used only when static HTML carried no cards, which
// happens when the listing is served as a client-side rendered shell.
func (s *FundDiscoveryService) fetchListingPageRendered(page int) []models.FundSummary {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(shared.BrowserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 3*s.requestTimeout)
	defer cancel()

	url := fmt.Sprintf(s.listingURLTemplate, page)
	var renderedHTML string
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &renderedHTML),
	)
	if err != nil {
		shared.WrapError(err, shared.ErrorCategoryNetwork, "HEADLESS_RENDER_FAILED", "FundDiscovery", "fetchListingPageRendered", true).
			WithDetails(url).LogError()
		return nil
	}

	document, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to parse rendered listing page")
		return nil
	}

	var cards []models.FundSummary
	document.Find(fundCardSelector).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if card, ok := s.cardFromSelection(sel, href); ok {
			cards = append(cards, card)
		}
	})
	return cards
}

// cardFromSelection builds a FundSummary from one card anchor. Risk, type
// and returns degrade to empty or "NA" markers when the card is missing
// them; only an absent name or link disqualifies the card.
func (s *FundDiscoveryService) cardFromSelection(sel *goquery.Selection, href string) (models.FundSummary, bool) {
	name := strings.TrimSpace(sel.Find(fundNameSelector).First().Text())

	riskType := sel.Find(riskTypeSelector)
	risk := strings.TrimSpace(riskType.Eq(0).Text())
	fundType := strings.TrimSpace(riskType.Eq(1).Text())

	returns := [3]string{"NA", "NA", "NA"}
	sel.Find(cardReturnSelector).EachWithBreak(func(i int, ret *goquery.Selection) bool {
		if i >= len(returns) {
			return false
		}
		if text := strings.TrimSpace(ret.Text()); text != "" {
			returns[i] = text
		}
		return true
	})

	link := strings.TrimSpace(href)
	if link != "" && !strings.HasPrefix(link, "http") {
		link = s.linkBase + link
	}

	if name == "" || link == "" {
		return models.FundSummary{}, false
	}

	return models.FundSummary{
		Name:    name,
		Risk:    risk,
		Type:    fundType,
		Returns: returns,
		Link:    link,
	}, true
}

// Metrics exposes the discovery request counters.
func (s *FundDiscoveryService) Metrics() *shared.ServiceMetrics {
	return s.metrics
}
