package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medtrackhq/medtrack/internal/api/domain"
	"github.com/medtrackhq/medtrack/pkg/slogx"
)

// DefaultDrugAPIBaseURL is the public FDA drug label endpoint.
const DefaultDrugAPIBaseURL = "https://api.fda.gov"

const drugSearchLimit = 5

// DrugService proxies name searches to the upstream drug label API. The
// upstream is best-effort: timeouts, 5xx responses and no-match 404s all
// come back as an empty result list so the frontend never has to care.
type DrugService struct {
	BaseURL string
	Client  *http.Client
}

func (s *DrugService) baseURL() string {
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/")
	}
	return DefaultDrugAPIBaseURL
}

func (s *DrugService) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// labelResponse mirrors the slice of the upstream payload we care about.
type labelResponse struct {
	Results []struct {
		Purpose                 []string `json:"purpose"`
		IndicationsAndUsage     []string `json:"indications_and_usage"`
		Warnings                []string `json:"warnings"`
		AdverseReactions        []string `json:"adverse_reactions"`
		DosageAndAdministration []string `json:"dosage_and_administration"`
		OpenFDA                 struct {
			BrandName   []string `json:"brand_name"`
			GenericName []string `json:"generic_name"`
			Route       []string `json:"route"`
			Rxcui       []string `json:"rxcui"`
		} `json:"openfda"`
	} `json:"results"`
}

// Search queries the upstream label API, matching the name against both
// generic and brand names.
func (s *DrugService) Search(ctx context.Context, name string) ([]domain.DrugResult, error) {
	l := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return []domain.DrugResult{}, nil
	}

	// The + keeps the two clauses as separate upstream search terms, so it
	// must not be query-escaped itself.
	search := url.QueryEscape(fmt.Sprintf("generic_name:%q", name)) +
		"+" + url.QueryEscape(fmt.Sprintf("brand_name:%q", name))
	endpoint := fmt.Sprintf("%s/drug/label.json?search=%s&limit=%d", s.baseURL(), search, drugSearchLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return []domain.DrugResult{}, nil
	}

	resp, err := s.client().Do(req)
	if err != nil {
		l.Warn("drug lookup upstream unreachable", slog.Any("error", err))
		return []domain.DrugResult{}, nil
	}
	defer resp.Body.Close()

	// The upstream answers 404 for zero matches.
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode != http.StatusNotFound {
			l.Warn("drug lookup upstream error", slog.Int("status", resp.StatusCode))
		}
		return []domain.DrugResult{}, nil
	}

	var payload labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		l.Warn("drug lookup payload malformed", slog.Any("error", err))
		return []domain.DrugResult{}, nil
	}

	results := make([]domain.DrugResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, domain.DrugResult{
			BrandName:   first(r.OpenFDA.BrandName),
			GenericName: first(r.OpenFDA.GenericName),
			Purpose:     first(r.Purpose),
			Indications: first(r.IndicationsAndUsage),
			Warnings:    first(r.Warnings),
			SideEffects: first(r.AdverseReactions),
			Dosage:      first(r.DosageAndAdministration),
			Route:       first(r.OpenFDA.Route),
			Rxcui:       first(r.OpenFDA.Rxcui),
		})
	}
	return results, nil
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
