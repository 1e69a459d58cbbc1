package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"spot-cycler-go/order"
)

// BinanceRESTClient 签名版现货客户端；HTTPClient 可注入 httptest，默认不发起真实网络调用。
type BinanceRESTClient struct {
	BaseURL      string
	APIKey       string
	Secret       string
	HTTPClient   *http.Client
	RecvWindowMs int
	Limiter      RateLimiter
}

// PriceLevel is one order-book level.
type PriceLevel struct {
	Price float64
	Qty   float64
}

// BookTop holds the top levels of both book sides, best first.
type BookTop struct {
	Asks []PriceLevel
	Bids []PriceLevel
}

type restOrder struct {
	OrderID     int64  `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Price       string `json:"price"`
	OrigQty     string `json:"origQty"`
	ExecutedQty string `json:"executedQty"`
	Fills       []struct {
		Price string `json:"price"`
		Qty   string `json:"qty"`
	} `json:"fills"`
}

// AccountBalances 返回 asset -> 可用余额。
func (c *BinanceRESTClient) AccountBalances() (map[string]float64, error) {
	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := c.signedCall(http.MethodGet, "/api/v3/account", nil, &resp); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(resp.Balances))
	for _, b := range resp.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			return nil, fmt.Errorf("parse balance %s: %w", b.Asset, err)
		}
		out[b.Asset] = free
	}
	return out, nil
}

// Depth 返回指定档数的盘口（公共接口，无需签名）。
func (c *BinanceRESTClient) Depth(symbol string, limit int) (BookTop, error) {
	var top BookTop
	if c == nil || c.HTTPClient == nil {
		return top, fmt.Errorf("http client not set")
	}
	c.wait()
	endpoint := fmt.Sprintf("%s/api/v3/depth?symbol=%s&limit=%d", c.BaseURL, url.QueryEscape(symbol), limit)
	req, _ := http.NewRequest(http.MethodGet, endpoint, nil)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return top, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return top, decodeAPIError(resp)
	}
	var raw struct {
		Asks [][2]string `json:"asks"`
		Bids [][2]string `json:"bids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return top, err
	}
	if top.Asks, err = parseLevels(raw.Asks); err != nil {
		return top, err
	}
	if top.Bids, err = parseLevels(raw.Bids); err != nil {
		return top, err
	}
	return top, nil
}

// PlaceLimit 提交 GTC 限价单，返回完整回报（含已成交量与成交明细）。
func (c *BinanceRESTClient) PlaceLimit(symbol, side string, price, qty float64) (order.Order, error) {
	params := map[string]string{
		"symbol":           symbol,
		"side":             side,
		"type":             order.TypeLimit,
		"timeInForce":      "GTC",
		"price":            formatFloat(price),
		"quantity":         formatFloat(qty),
		"newOrderRespType": "FULL",
	}
	var ro restOrder
	if err := c.signedCall(http.MethodPost, "/api/v3/order", params, &ro); err != nil {
		return order.Order{}, err
	}
	return toOrder(ro)
}

// PlaceMarket 提交市价单。
func (c *BinanceRESTClient) PlaceMarket(symbol, side string, qty float64) (order.Order, error) {
	params := map[string]string{
		"symbol":           symbol,
		"side":             side,
		"type":             order.TypeMarket,
		"quantity":         formatFloat(qty),
		"newOrderRespType": "FULL",
	}
	var ro restOrder
	if err := c.signedCall(http.MethodPost, "/api/v3/order", params, &ro); err != nil {
		return order.Order{}, err
	}
	return toOrder(ro)
}

// GetOrder 查询订单当前状态。
func (c *BinanceRESTClient) GetOrder(symbol string, orderID int64) (order.Order, error) {
	params := map[string]string{
		"symbol":  symbol,
		"orderId": strconv.FormatInt(orderID, 10),
	}
	var ro restOrder
	if err := c.signedCall(http.MethodGet, "/api/v3/order", params, &ro); err != nil {
		return order.Order{}, err
	}
	return toOrder(ro)
}

// CancelOrder 撤单；订单已终态时返回可用 IsNotCancelable 识别的 *APIError。
func (c *BinanceRESTClient) CancelOrder(symbol string, orderID int64) error {
	params := map[string]string{
		"symbol":  symbol,
		"orderId": strconv.FormatInt(orderID, 10),
	}
	return c.signedCall(http.MethodDelete, "/api/v3/order", params, nil)
}

// OpenOrders 列出该交易对当前所有挂单。
func (c *BinanceRESTClient) OpenOrders(symbol string) ([]order.Order, error) {
	params := map[string]string{"symbol": symbol}
	var ros []restOrder
	if err := c.signedCall(http.MethodGet, "/api/v3/openOrders", params, &ros); err != nil {
		return nil, err
	}
	out := make([]order.Order, 0, len(ros))
	for _, ro := range ros {
		o, err := toOrder(ro)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *BinanceRESTClient) signedCall(method, path string, params map[string]string, out interface{}) error {
	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	c.wait()
	if params == nil {
		params = map[string]string{}
	}
	query, sig := SignParams(params, c.Secret, c.RecvWindowMs)
	endpoint := c.BaseURL + path + "?" + query + "&signature=" + url.QueryEscape(sig)
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *BinanceRESTClient) wait() {
	if c.Limiter != nil {
		c.Limiter.Wait()
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{HTTPStatus: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func toOrder(ro restOrder) (order.Order, error) {
	o := order.Order{
		ID:     ro.OrderID,
		Symbol: ro.Symbol,
		Side:   ro.Side,
		Type:   ro.Type,
		Status: order.Status(ro.Status),
	}
	var err error
	if o.Price, err = parseOptFloat(ro.Price); err != nil {
		return o, fmt.Errorf("parse order price: %w", err)
	}
	if o.Quantity, err = parseOptFloat(ro.OrigQty); err != nil {
		return o, fmt.Errorf("parse order qty: %w", err)
	}
	if o.ExecutedQty, err = parseOptFloat(ro.ExecutedQty); err != nil {
		return o, fmt.Errorf("parse executed qty: %w", err)
	}
	for _, f := range ro.Fills {
		price, err := parseOptFloat(f.Price)
		if err != nil {
			return o, fmt.Errorf("parse fill price: %w", err)
		}
		qty, err := parseOptFloat(f.Qty)
		if err != nil {
			return o, fmt.Errorf("parse fill qty: %w", err)
		}
		o.Fills = append(o.Fills, order.Fill{Price: price, Qty: qty})
	}
	return o, nil
}

func parseLevels(raw [][2]string) ([]PriceLevel, error) {
	out := make([]PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse depth price: %w", err)
		}
		qty, err := strconv.ParseFloat(lvl[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse depth qty: %w", err)
		}
		out = append(out, PriceLevel{Price: price, Qty: qty})
	}
	return out, nil
}

func parseOptFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
