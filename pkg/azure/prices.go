package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/retry"
)

const retailPricesURL = "https://prices.azure.com/api/retail/prices"

// RetailClient queries the public Retail Prices API. The API is
// unauthenticated but aggressively throttled, so requests go through a
// rate limiter and transient statuses are retried.
type RetailClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
}

func NewRetailClient() *RetailClient {
	return &RetailClient{
		baseURL: retailPricesURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
		policy: retry.Policy{
			Attempts:  3,
			BaseDelay: time.Second,
			Transient: retry.TransientText,
		},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *RetailClient) WithBaseURL(u string) *RetailClient {
	c.baseURL = u
	return c
}

type retailItem struct {
	RetailPrice float64 `json:"retailPrice"`
	ArmSKUName  string  `json:"armSkuName"`
	SKUName     string  `json:"skuName"`
	ProductName string  `json:"productName"`
	MeterName   string  `json:"meterName"`
	Type        string  `json:"type"`
}

type retailPage struct {
	Items        []retailItem `json:"Items"`
	NextPageLink string       `json:"NextPageLink"`
}

// Price returns the pay-as-you-go hourly price for (SKU, region, OS).
// Spot and low-priority meters are skipped; ok=false means no matching
// consumption meter exists, which is a normal outcome for regional
// gaps.
func (c *RetailClient) Price(ctx context.Context, sku, region, osType string) (float64, bool, error) {
	regionKey := strings.ReplaceAll(strings.ToLower(region), " ", "")
	filter := fmt.Sprintf(
		"serviceName eq 'Virtual Machines' and armRegionName eq '%s' and armSkuName eq '%s' and priceType eq 'Consumption'",
		regionKey, sku)

	next := c.baseURL + "?$filter=" + url.QueryEscape(filter)
	windows := strings.EqualFold(osType, "Windows")

	for next != "" {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return 0, false, err
		}
		for _, item := range page.Items {
			if strings.Contains(item.SKUName, "Spot") || strings.Contains(item.SKUName, "Low Priority") ||
				strings.Contains(item.MeterName, "Spot") || strings.Contains(item.MeterName, "Low Priority") {
				continue
			}
			if windows != strings.Contains(item.ProductName, "Windows") {
				continue
			}
			return item.RetailPrice, true, nil
		}
		next = page.NextPageLink
	}
	return 0, false, nil
}

// Prices is the batch variant across regions; regions without a price
// are absent from the map.
func (c *RetailClient) Prices(ctx context.Context, sku string, regions []string, osType string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, region := range regions {
		price, ok, err := c.Price(ctx, sku, region, osType)
		if err != nil {
			return nil, err
		}
		if ok {
			out[region] = price
		}
	}
	return out, nil
}

func (c *RetailClient) fetchPage(ctx context.Context, pageURL string) (*retailPage, error) {
	var page retailPage
	err := c.policy.Do(ctx, func() error {
		page = retailPage{}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("failed to query retail prices: %w", err)
		}
		defer resp.Body.Close()

		if retry.TransientHTTPStatus(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("retail prices API returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
			return fmt.Errorf("retail prices API rejected request (%d): %s", resp.StatusCode, body)
		}
		return json.NewDecoder(resp.Body).Decode(&page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}
