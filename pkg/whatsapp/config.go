package whatsapp

import "time"

type Config struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetry    int           `mapstructure:"max_retry"`
	VerifyToken string        `mapstructure:"verify_token"`
	AppSecret   string        `mapstructure:"app_secret"`
	Numbers     []Credentials `mapstructure:"numbers"`
}

// Credentials binds a business number to the Cloud API phone number id and token
// used to send from it.
type Credentials struct {
	BusinessNumber string `mapstructure:"business_number"`
	PhoneNumberID  string `mapstructure:"phone_number_id"`
	AccessToken    string `mapstructure:"access_token"`
}

func (c Config) CredentialsFor(businessNumber string) (Credentials, bool) {
	for _, creds := range c.Numbers {
		if creds.BusinessNumber == businessNumber {
			return creds, true
		}
	}
	return Credentials{}, false
}

// BusinessNumberFor resolves the business number owning a Cloud API phone number id.
func (c Config) BusinessNumberFor(phoneNumberID string) (string, bool) {
	for _, creds := range c.Numbers {
		if creds.PhoneNumberID == phoneNumberID {
			return creds.BusinessNumber, true
		}
	}
	return "", false
}
