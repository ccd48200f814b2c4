package config

import "time"

// PaymentConfig describes the hosted payment gateway account. KeyID is
// public and handed to the checkout widget; KeySecret signs and verifies
// payment callbacks and must never leave the server.
type PaymentConfig struct {
	Gateway   string
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	Timeout   time.Duration
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		Gateway:   envStr("PAYMENT_GATEWAY", "razorpay"),
		BaseURL:   envStr("PAYMENT_BASE_URL", "https://api.razorpay.com"),
		KeyID:     must("PAYMENT_KEY_ID"),
		KeySecret: must("PAYMENT_KEY_SECRET"),
		Currency:  envStr("PAYMENT_CURRENCY", "INR"),
		Timeout:   envDur("PAYMENT_TIMEOUT", 10*time.Second),
	}
}
