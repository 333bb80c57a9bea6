package azure

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"gopkg.in/ini.v1"
)

const DefaultProfile = "default"

// Config identifies the subscription an analysis run targets.
type Config struct {
	SubscriptionID string
	TenantID       string
	Credentials    azcore.TokenCredential
}

// LoadConfig resolves the target subscription from AZURE_SUBSCRIPTION_ID
// and AZURE_TENANT_ID, falling back to the named profile in
// ~/.azure/config. Credentials come from the Azure CLI, with the
// default chain as fallback for non-interactive environments.
func LoadConfig(profile string) (*Config, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	config := &Config{
		SubscriptionID: os.Getenv("AZURE_SUBSCRIPTION_ID"),
		TenantID:       os.Getenv("AZURE_TENANT_ID"),
	}

	if config.SubscriptionID == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("unable to get home directory: %w", err)
		}
		subscription, tenant, err := resolveProfile(filepath.Join(homeDir, ".azure", "config"), profile)
		if err != nil {
			return nil, err
		}
		config.SubscriptionID = subscription
		if config.TenantID == "" {
			config.TenantID = tenant
		}
	}

	if config.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription ID not found in environment or profile %s", profile)
	}

	credentials, err := getCredentials(config.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get Azure credentials: %w", err)
	}
	config.Credentials = credentials
	return config, nil
}

// resolveProfile reads the named section of an Azure CLI config file.
func resolveProfile(path, profile string) (subscription, tenant string, err error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return "", "", fmt.Errorf("unable to load Azure config file: %w", err)
	}
	section, err := cfg.GetSection(profile)
	if err != nil {
		return "", "", fmt.Errorf("profile %s not found in Azure config: %w", profile, err)
	}
	return section.Key("subscription").String(), section.Key("tenant").String(), nil
}

func getCredentials(tenantID string) (azcore.TokenCredential, error) {
	cliCred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
		TenantID: tenantID,
	})
	if err == nil {
		return cliCred, nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create default credential chain: %w", err)
	}
	return cred, nil
}
