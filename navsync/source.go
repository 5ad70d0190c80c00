package navsync

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/gocolly/colly/v2/queue"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"mellivora/store"
)

// NavSource crawls the upstream fund data site: one listing page with every
// fund's profile row, and one NAV-history page per fund.
type NavSource struct {
	baseURL string
}

func NewNavSource(baseURL string) *NavSource {
	return &NavSource{baseURL: strings.TrimRight(baseURL, "/")}
}

func (ns *NavSource) newCollector() (*colly.Collector, *queue.Queue) {
	collector := colly.NewCollector(colly.Debugger(&LogDebugger{}))
	extensions.RandomUserAgent(collector)
	extensions.Referer(collector)
	q, _ := queue.New(
		2,
		&queue.InMemoryQueueStorage{MaxSize: 10000},
	)
	return collector, q
}

// CrawlProfiles fetches the fund listing and returns one profile per row.
func (ns *NavSource) CrawlProfiles() (profiles []*store.FundProfile, err error) {
	reqURL, _ := url.Parse(fmt.Sprintf("%s/funds", ns.baseURL))
	profiles = make([]*store.FundProfile, 0)

	collector, q := ns.newCollector()
	req := &colly.Request{
		URL:     reqURL,
		Ctx:     colly.NewContext(),
		Method:  "GET",
		Headers: &http.Header{},
	}
	q.AddRequest(req)

	collector.OnHTML("table#fund_list", func(e *colly.HTMLElement) {
		e.DOM.Find("tbody tr").Each(func(i int, s *goquery.Selection) {
			profile := parseProfileRow(s)
			if profile != nil {
				profiles = append(profiles, profile)
			}
		})
	})

	collector.OnError(func(r *colly.Response, err_ error) {
		err = err_
		log.Error().Err(err).Str("url", reqURL.String()).Msg("Error occurred while crawling fund profiles")
	})

	q.Run(collector)
	return
}

// CrawlNavHistory fetches the NAV history table for one fund. Rows the site
// renders without a parseable date or NAV are skipped.
func (ns *NavSource) CrawlNavHistory(profile *store.FundProfile) (navs []*store.FundNav, err error) {
	reqURL, _ := url.Parse(fmt.Sprintf("%s/funds/%s/nav-history", ns.baseURL, url.PathEscape(profile.Code)))
	navs = make([]*store.FundNav, 0)

	collector, q := ns.newCollector()
	req := &colly.Request{
		URL:     reqURL,
		Ctx:     colly.NewContext(),
		Method:  "GET",
		Headers: &http.Header{},
	}
	q.AddRequest(req)

	collector.OnHTML("table#nav_history", func(e *colly.HTMLElement) {
		e.DOM.Find("tbody tr").Each(func(i int, s *goquery.Selection) {
			cells := s.Find("td")
			if cells.Length() < 3 {
				return
			}
			navDate, perr := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(0).Text()))
			if perr != nil {
				return
			}
			unitNav, perr := decimal.NewFromString(strings.TrimSpace(cells.Eq(1).Text()))
			if perr != nil {
				return
			}
			accumulatedNav, perr := decimal.NewFromString(strings.TrimSpace(cells.Eq(2).Text()))
			if perr != nil {
				accumulatedNav = unitNav
			}
			navs = append(navs, &store.FundNav{
				FundID:         profile.ID,
				NavDate:        navDate,
				UnitNav:        unitNav,
				AccumulatedNav: accumulatedNav,
			})
		})
	})

	collector.OnError(func(r *colly.Response, err_ error) {
		err = err_
		log.Error().Err(err).Str("code", profile.Code).Msg("Error occurred while crawling NAV history")
	})

	q.Run(collector)
	return
}

func parseProfileRow(s *goquery.Selection) *store.FundProfile {
	cells := s.Find("td")
	if cells.Length() < 6 {
		return nil
	}

	code := strings.TrimSpace(cells.Eq(0).Text())
	name := strings.TrimSpace(cells.Eq(1).Text())
	if code == "" || name == "" {
		return nil
	}

	profile := &store.FundProfile{
		Code:         code,
		Name:         name,
		FundType:     strings.TrimSpace(cells.Eq(4).Text()),
		NavFrequency: "D",
	}

	if shortName := strings.TrimSpace(cells.Eq(2).Text()); shortName != "" {
		profile.ShortName = &shortName
	}
	// Manager stays NULL when the site shows no name; the "unknown" string
	// is a presentation concern.
	if manager := strings.TrimSpace(cells.Eq(3).Text()); manager != "" {
		profile.FundManager = &manager
	}
	if riskLevel, err := strconv.ParseInt(strings.TrimSpace(cells.Eq(5).Text()), 10, 16); err == nil {
		profile.RiskLevel = int16(riskLevel)
	} else {
		profile.RiskLevel = 3
	}
	if cells.Length() > 6 {
		if startDate, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(6).Text())); err == nil {
			profile.NavStartDate = &startDate
		}
	}

	return profile
}
