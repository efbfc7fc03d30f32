package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saldo/internal/cache"
	"saldo/internal/config"
)

// SubscriptionStatus is what the API reports back to the client app.
type SubscriptionStatus struct {
	Subscribed bool   `json:"subscribed"`
	Tier       string `json:"subscription_tier"`
}

// Client speaks the provider's form-encoded REST API.
type Client struct {
	baseURL    string
	secretKey  string
	successURL string
	cancelURL  string
	returnURL  string

	httpClient  *http.Client
	statusCache *cache.LRUCache[SubscriptionStatus]
}

// NewClient creates a billing client from the application config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BillingAPIURL, "/"),
		secretKey:  cfg.BillingSecretKey,
		successURL: cfg.BillingSuccessURL,
		cancelURL:  cfg.BillingCancelURL,
		returnURL:  cfg.BillingReturnURL,

		httpClient:  &http.Client{Timeout: 30 * time.Second},
		statusCache: cache.NewLRUCache[SubscriptionStatus](128, cfg.BillingCacheTTL),
	}
}

// provider API payload shapes, only the fields we read

type providerProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type providerPrice struct {
	ID         string `json:"id"`
	UnitAmount int64  `json:"unit_amount"`
	Recurring  struct {
		Interval string `json:"interval"`
	} `json:"recurring"`
}

type providerCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type providerSubscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Items  struct {
		Data []struct {
			Price providerPrice `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type providerSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// CreateCheckoutSession prepares a hosted checkout for the given plan and
// returns the redirect URL. Product and price are created on first use.
func (c *Client) CreateCheckoutSession(ctx context.Context, planID, email string) (string, error) {
	plan, ok := PlanByID(planID)
	if !ok {
		return "", fmt.Errorf("unknown plan: %s", planID)
	}

	priceID, err := c.ensurePrice(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("ensure price for plan %s: %w", plan.ID, err)
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("allow_promotion_codes", "true")
	if email != "" {
		form.Set("customer_email", email)
	}
	if plan.TrialDays > 0 {
		form.Set("subscription_data[trial_period_days]", strconv.Itoa(plan.TrialDays))
	}

	var session providerSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	slog.InfoContext(ctx, "Checkout session created",
		"plan_id", plan.ID,
		"session_id", session.ID)

	return session.URL, nil
}

// CreatePortalSession opens the customer portal for an existing customer.
func (c *Client) CreatePortalSession(ctx context.Context, email string) (string, error) {
	customer, err := c.findCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", fmt.Errorf("no billing customer for %s", email)
	}

	form := url.Values{}
	form.Set("customer", customer.ID)
	form.Set("return_url", c.returnURL)

	var session providerSession
	if err := c.post(ctx, "/v1/billing_portal/sessions", form, &session); err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}

	return session.URL, nil
}

// Status reports whether the customer has an active subscription and on
// which tier. Results are cached; refresh forces a provider round-trip.
func (c *Client) Status(ctx context.Context, email string, refresh bool) (SubscriptionStatus, error) {
	if !refresh {
		if status, ok := c.statusCache.Get(email); ok {
			return status, nil
		}
	}

	status := SubscriptionStatus{Subscribed: false, Tier: "free"}

	customer, err := c.findCustomer(ctx, email)
	if err != nil {
		return SubscriptionStatus{}, err
	}
	if customer == nil {
		c.statusCache.Set(email, status)
		return status, nil
	}

	query := url.Values{}
	query.Set("customer", customer.ID)
	query.Set("status", "active")
	query.Set("limit", "1")

	var subs listEnvelope[providerSubscription]
	if err := c.get(ctx, "/v1/subscriptions", query, &subs); err != nil {
		return SubscriptionStatus{}, fmt.Errorf("list subscriptions: %w", err)
	}

	if len(subs.Data) > 0 {
		status.Subscribed = true
		items := subs.Data[0].Items.Data
		if len(items) > 0 {
			if plan, ok := planByAmount(items[0].Price.UnitAmount); ok {
				status.Tier = plan.ID
			}
		}
	}

	c.statusCache.Set(email, status)
	return status, nil
}

// ensurePrice finds or creates the product and recurring price backing a
// plan, returning the price ID.
func (c *Client) ensurePrice(ctx context.Context, plan Plan) (string, error) {
	productID, err := c.ensureProduct(ctx, plan)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("product", productID)
	query.Set("limit", "100")

	var prices listEnvelope[providerPrice]
	if err := c.get(ctx, "/v1/prices", query, &prices); err != nil {
		return "", fmt.Errorf("list prices: %w", err)
	}
	for _, p := range prices.Data {
		if p.UnitAmount == plan.AmountCents && p.Recurring.Interval == plan.Interval {
			return p.ID, nil
		}
	}

	form := url.Values{}
	form.Set("product", productID)
	form.Set("unit_amount", strconv.FormatInt(plan.AmountCents, 10))
	form.Set("currency", "usd")
	form.Set("recurring[interval]", plan.Interval)

	var price providerPrice
	if err := c.post(ctx, "/v1/prices", form, &price); err != nil {
		return "", fmt.Errorf("create price: %w", err)
	}

	slog.InfoContext(ctx, "Created recurring price",
		"plan_id", plan.ID,
		"price_id", price.ID,
		"amount_cents", plan.AmountCents)

	return price.ID, nil
}

func (c *Client) ensureProduct(ctx context.Context, plan Plan) (string, error) {
	query := url.Values{}
	query.Set("limit", "100")

	var products listEnvelope[providerProduct]
	if err := c.get(ctx, "/v1/products", query, &products); err != nil {
		return "", fmt.Errorf("list products: %w", err)
	}
	for _, p := range products.Data {
		if p.Name == plan.Name {
			return p.ID, nil
		}
	}

	form := url.Values{}
	form.Set("name", plan.Name)
	form.Set("description", plan.Description)

	var product providerProduct
	if err := c.post(ctx, "/v1/products", form, &product); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	slog.InfoContext(ctx, "Created product",
		"plan_id", plan.ID,
		"product_id", product.ID)

	return product.ID, nil
}

// findCustomer looks a customer up by email, nil when absent.
func (c *Client) findCustomer(ctx context.Context, email string) (*providerCustomer, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("limit", "1")

	var customers listEnvelope[providerCustomer]
	if err := c.get(ctx, "/v1/customers", query, &customers); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if len(customers.Data) == 0 {
		return nil, nil
	}
	return &customers.Data[0], nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
