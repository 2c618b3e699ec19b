package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks the payment signature Razorpay sends after a
// successful capture. The expected signature is the hex HMAC-SHA256 of
// "<gateway_order_id>|<gateway_payment_id>" keyed with the key secret.
// Comparison is constant time.
func VerifySignature(keySecret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	if keySecret == "" || gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
