package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apierrors "github.com/diogo/readalong/internal/errors"
	"github.com/diogo/readalong/internal/models"
)

// Credentials holds the secrets needed to reach the hosted assistant service
type Credentials struct {
	APIKey   string
	Endpoint string
}

// LoadCredentials reads the API key and endpoint from the environment.
// Values from the given dotenv files (".env" when none are given) are loaded
// first without overriding variables that are already set.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, apierrors.NewConfigurationError(file, err.Error())
		}
	}

	creds := Credentials{
		APIKey:   strings.TrimSpace(os.Getenv(models.EnvAPIKey)),
		Endpoint: strings.TrimSpace(os.Getenv(models.EnvEndpoint)),
	}

	if err := ValidateCredentials(creds); err != nil {
		return Credentials{}, err
	}

	return creds, nil
}

// ValidateCredentials checks that both secrets are present and the endpoint is a URL
func ValidateCredentials(creds Credentials) error {
	if creds.APIKey == "" {
		return apierrors.NewConfigurationError(models.EnvAPIKey, "not set (export it or add it to .env)")
	}
	if creds.Endpoint == "" {
		return apierrors.NewConfigurationError(models.EnvEndpoint, "not set (export it or add it to .env)")
	}

	u, err := url.Parse(creds.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return apierrors.NewConfigurationError(models.EnvEndpoint, "must be an http(s) URL, e.g. https://my-resource.openai.azure.com/")
	}

	return nil
}

// MaskedKey returns the API key with everything but the last four characters hidden
func (c Credentials) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
