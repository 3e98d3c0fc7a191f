package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret
func Sign(secret, orderID, paymentID string) string {
	return hex.EncodeToString(mac(secret, []byte(orderID+"|"+paymentID)))
}

// VerifyPayment reports whether signature is the gateway signature for the pair
func VerifyPayment(secret, orderID, paymentID, signature string) bool {
	return equalHex(mac(secret, []byte(orderID+"|"+paymentID)), signature)
}

// VerifyWebhook checks the X-Razorpay-Signature of a raw webhook body
func VerifyWebhook(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	return equalHex(mac(secret, body), signature)
}

func mac(secret string, msg []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(msg)
	return h.Sum(nil)
}

// equalHex compares the lowercase hex text itself so that any change to the
// supplied signature, including letter case, is rejected
func equalHex(expected []byte, signature string) bool {
	return hmac.Equal([]byte(hex.EncodeToString(expected)), []byte(signature))
}
