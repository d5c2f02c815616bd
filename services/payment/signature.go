package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// computeSignature returns hex(sha512(order_id + status_code + gross_amount
// + server_key)), the gateway's webhook signing scheme.
func computeSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func verifySignature(n Notification, serverKey string) bool {
	expected := computeSignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}
