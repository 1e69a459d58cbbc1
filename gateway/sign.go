package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// timeNowMillis 可在测试中替换以获得确定性签名。
var timeNowMillis = func() int64 { return time.Now().UnixMilli() }

// SignParams 将参数编码为查询串并附加 timestamp/recvWindow，返回查询串与 HMAC-SHA256 签名。
func SignParams(params map[string]string, secret string, recvWindowMs int) (query, signature string) {
	if recvWindowMs <= 0 {
		recvWindowMs = 5000
	}
	keys := make([]string, 0, len(params)+2)
	for k := range params {
		keys = append(keys, k)
	}
	keys = append(keys, "timestamp", "recvWindow")
	sort.Strings(keys)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("timestamp", fmt.Sprintf("%d", timeNowMillis()))
	values.Set("recvWindow", fmt.Sprintf("%d", recvWindowMs))

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(values.Get(k)))
	}
	query = strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	signature = hex.EncodeToString(mac.Sum(nil))
	return query, signature
}
