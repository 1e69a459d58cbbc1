package gateway

import (
	"errors"
	"fmt"
)

// Binance 错误码：撤单时订单已成交/已撤销。
const codeUnknownOrder = -2011

// APIError 表示交易所返回的业务错误（HTTP 4xx/5xx 携带 code/msg）。
type APIError struct {
	HTTPStatus int
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error %d (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}

// IsNotCancelable 判断撤单失败是否属于已终态竞态（按良性处理）。
func IsNotCancelable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == codeUnknownOrder
	}
	return false
}
