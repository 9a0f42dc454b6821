// Package listing scrapes internship and job postings from the listing site and keeps
// the ones relevant to a search keyword.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/intern-autoapply/internal/fetch"
	"github.com/jonathan/intern-autoapply/internal/llm"
	"github.com/jonathan/intern-autoapply/internal/types"
)

// Fetcher returns up to limit relevant postings for a keyword.
type Fetcher interface {
	Fetch(ctx context.Context, keyword string, limit int) ([]types.Posting, error)
}

// Listing categories
const (
	CategoryInternship = "internship"
	CategoryJob        = "job"
)

// DefaultLimit applies when Fetch is called with a non-positive limit.
const DefaultLimit = 5

// ErrEmptyKeyword is returned when the keyword has no searchable characters.
var ErrEmptyKeyword = errors.New("keyword is empty")

// Selectors locate posting fields on the search and detail pages.
type Selectors struct {
	Card          string
	Title         []string // first non-empty match wins
	Company       string
	Location      string
	Stipend       string
	DurationIcon  string // the duration is the span following this icon
	Description   string
	SkillsLabel   string
	EligibleLabel string
}

// DefaultSelectors matches the listing site's current markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:          ".individual_internship",
		Title:         []string{"h3 a", "[class*='internship_title'] a"},
		Company:       "[class*='company_name'] > div > p",
		Location:      ".location_link",
		Stipend:       "span.stipend",
		DurationIcon:  "i.ic-16-calendar",
		Description:   ".text-container",
		SkillsLabel:   "Skill(s) required",
		EligibleLabel: "Who can apply",
	}
}

// Options configures an InternshalaFetcher.
type Options struct {
	BaseURL     string
	Category    string
	Selectors   Selectors
	Concurrency int     // detail pages fetched at once
	RatePerHost float64 // detail requests per second per host
	HTTP        *fetch.Options
	UseBrowser  bool // render the search page when plain HTTP finds no cards
	Verbose     bool
}

// DefaultOptions returns options for internships on the public site.
func DefaultOptions() Options {
	return Options{
		BaseURL:     "https://internshala.com",
		Category:    CategoryInternship,
		Selectors:   DefaultSelectors(),
		Concurrency: 4,
		RatePerHost: 2,
	}
}

// InternshalaFetcher scrapes the listing site's keyword search.
type InternshalaFetcher struct {
	client  llm.Client
	opts    Options
	limiter *fetch.HostLimiter
}

// NewInternshalaFetcher builds a fetcher. client may be nil, in which case keywords are not expanded.
func NewInternshalaFetcher(client llm.Client, opts Options) *InternshalaFetcher {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Category == "" {
		opts.Category = def.Category
	}
	if opts.Selectors.Card == "" {
		opts.Selectors = def.Selectors
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RatePerHost <= 0 {
		opts.RatePerHost = def.RatePerHost
	}
	if opts.HTTP == nil {
		opts.HTTP = fetch.DefaultOptions()
	}

	limiter := fetch.NewHostLimiter(opts.RatePerHost, opts.Concurrency)
	httpOpts := *opts.HTTP
	httpOpts.Limiter = limiter
	opts.HTTP = &httpOpts

	return &InternshalaFetcher{client: client, opts: opts, limiter: limiter}
}

// SearchURL returns the keyword search page for the fetcher's category.
func (f *InternshalaFetcher) SearchURL(keyword string) string {
	slug := strings.ReplaceAll(strings.TrimSpace(keyword), " ", "-")
	return fmt.Sprintf("%s/%ss/keywords-%s/", f.opts.BaseURL, f.opts.Category, url.PathEscape(slug))
}

// Fetch scrapes the search page, reads each card's detail page and keeps relevant postings
// in page order until limit is reached. Cards that cannot be read are skipped.
func (f *InternshalaFetcher) Fetch(ctx context.Context, keyword string, limit int) ([]types.Posting, error) {
	if CleanKeyword(keyword) == "" {
		return nil, ErrEmptyKeyword
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	expanded := ExpandKeywords(ctx, f.client, keyword)
	if f.opts.Verbose {
		log.Printf("[VERBOSE] Expanded keywords: %v", expanded)
	}

	searchURL := f.SearchURL(keyword)
	log.Printf("[LISTING] Searching %ss for %q: %s", f.opts.Category, keyword, searchURL)

	var browser *fetch.BrowserOptions
	if f.opts.UseBrowser {
		browser = &fetch.BrowserOptions{
			WaitSelector: "body",
			Settle:       3 * time.Second,
			Verbose:      f.opts.Verbose,
		}
	}
	html, err := fetch.FetchOrRender(ctx, searchURL, f.opts.HTTP, browser, func(html string) bool {
		return strings.Contains(html, strings.TrimPrefix(f.opts.Selectors.Card, "."))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load search page: %w", err)
	}

	doc, err := fetch.ParseHTML(html)
	if err != nil {
		return nil, err
	}
	cards := ParseCards(doc, f.opts.BaseURL, f.opts.Selectors)
	log.Printf("[LISTING] Found %d cards", len(cards))

	postings := make([]types.Posting, 0, limit)
	// Detail pages are read a window at a time so a small limit does not fetch every card.
	window := max(limit, f.opts.Concurrency)
	for start := 0; start < len(cards) && len(postings) < limit; start += window {
		end := min(start+window, len(cards))
		detailed, err := f.fetchDetails(ctx, cards[start:end])
		if err != nil {
			return postings, err
		}
		for i, p := range detailed {
			if p == nil {
				continue
			}
			if !IsRelevant(*p, expanded) {
				log.Printf("[LISTING] Skipped card %d: %q is not relevant to %q", start+i+1, p.Title, keyword)
				continue
			}
			postings = append(postings, *p)
			log.Printf("[LISTING] %d. %s at %s", len(postings), p.Title, p.Company)
			if len(postings) == limit {
				break
			}
		}
	}

	return postings, nil
}

// fetchDetails fills in every card from its detail page. A card whose page cannot be
// read comes back nil; only context cancellation fails the batch.
func (f *InternshalaFetcher) fetchDetails(ctx context.Context, cards []types.Posting) ([]*types.Posting, error) {
	out := make([]*types.Posting, len(cards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for i := range cards {
		g.Go(func() error {
			card := cards[i]
			res, err := fetch.URL(gctx, card.Link, f.opts.HTTP)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("[LISTING] Skipped %s: %v", card.Link, err)
				return nil
			}
			doc, err := res.Document()
			if err != nil {
				log.Printf("[LISTING] Skipped %s: %v", card.Link, err)
				return nil
			}
			p := ParseDetail(doc, card, f.opts.Selectors).WithDefaults()
			out[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseCards extracts the summary fields of every card on a search page.
// Cards without a title or a link are dropped.
func ParseCards(doc *goquery.Document, baseURL string, sel Selectors) []types.Posting {
	base, _ := url.Parse(baseURL)
	var postings []types.Posting

	doc.Find(sel.Card).Each(func(i int, card *goquery.Selection) {
		var title string
		for _, s := range sel.Title {
			if title = textOf(card.Find(s).First()); title != "" {
				break
			}
		}
		if title == "" {
			return
		}

		href, ok := card.Find("a[href]").First().Attr("href")
		link := resolveLink(base, href)
		if !ok || link == "" {
			log.Printf("[LISTING] Card %d (%q) has no link", i+1, title)
			return
		}

		postings = append(postings, types.Posting{
			Title:    title,
			Company:  textOf(card.Find(sel.Company).First()),
			Location: textOf(card.Find(sel.Location).First()),
			Stipend:  textOf(card.Find(sel.Stipend).First()),
			Duration: textOf(card.Find(sel.DurationIcon).First().NextAllFiltered("span").First()),
			Link:     link,
		})
	})
	return postings
}

// ParseDetail adds the description, skills and eligibility from a detail page.
func ParseDetail(doc *goquery.Document, p types.Posting, sel Selectors) types.Posting {
	p.Description = fetch.CleanText(doc.Find(sel.Description).First().Text())
	p.Skills = sectionAfter(doc, sel.SkillsLabel)
	p.WhoCanApply = sectionAfter(doc, sel.EligibleLabel)
	return p
}

// sectionAfter returns the text of the first div following a div whose own text contains label.
func sectionAfter(doc *goquery.Document, label string) string {
	var out string
	doc.Find("div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !ownTextContains(s, label) {
			return true
		}
		next := s.NextAllFiltered("div").First()
		if next.Length() == 0 {
			return true
		}
		out = fetch.CleanText(next.Text())
		return false
	})
	return out
}

func ownTextContains(s *goquery.Selection, needle string) bool {
	found := false
	s.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if goquery.NodeName(c) == "#text" && strings.Contains(c.Text(), needle) {
			found = true
		}
		return !found
	})
	return found
}

func textOf(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil && !ref.IsAbs() {
		ref = base.ResolveReference(ref)
	}
	return types.CanonicalLink(ref.String())
}
