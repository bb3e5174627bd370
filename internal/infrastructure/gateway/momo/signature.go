// Package momo - адаптер платёжного шлюза MoMo (v2 API).
//
// Подписи: HMAC-SHA256 (hex) над канонической строкой параметров,
// отсортированных по имени ключа, как того требует протокол шлюза.
package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// signParams строит каноническую строку "k1=v1&k2=v2&..." из параметров,
// отсортированных по ключу, и возвращает её HMAC-SHA256 в hex.
func signParams(secretKey string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}

	return calculateHMAC(sb.String(), secretKey)
}

// calculateHMAC вычисляет HMAC-SHA256 строки и возвращает hex.
func calculateHMAC(raw, secretKey string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// verifySignature сравнивает подписи за константное время.
func verifySignature(expected, actual string) bool {
	return hmac.Equal([]byte(expected), []byte(actual))
}

// createSignature строит подпись запроса /create.
func createSignature(cfg Config, requestID, orderID, orderInfo, extraData string, amount int64) string {
	return signParams(cfg.SecretKey, map[string]string{
		"accessKey":   cfg.AccessKey,
		"amount":      fmt.Sprintf("%d", amount),
		"extraData":   extraData,
		"ipnUrl":      cfg.IPNURL,
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"partnerCode": cfg.PartnerCode,
		"redirectUrl": cfg.RedirectURL,
		"requestId":   requestID,
		"requestType": cfg.RequestType,
	})
}

// callbackSignature строит ожидаемую подпись IPN callback'а.
func callbackSignature(cfg Config, p callbackBody) string {
	return signParams(cfg.SecretKey, map[string]string{
		"accessKey":    cfg.AccessKey,
		"amount":       fmt.Sprintf("%d", p.Amount),
		"extraData":    p.ExtraData,
		"message":      p.Message,
		"orderId":      p.OrderID,
		"orderInfo":    p.OrderInfo,
		"orderType":    p.OrderType,
		"partnerCode":  p.PartnerCode,
		"payType":      p.PayType,
		"requestId":    p.RequestID,
		"responseTime": fmt.Sprintf("%d", p.ResponseTime),
		"resultCode":   fmt.Sprintf("%d", p.ResultCode),
		"transId":      fmt.Sprintf("%d", p.TransID),
	})
}
