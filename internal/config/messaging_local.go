//go:build !gcloud

package config

func (c *MessagingConfig) Validate() error {
	if c.GatewayURL == "" {
		return ErrMessagingGatewayNeeded
	}
	return nil
}
