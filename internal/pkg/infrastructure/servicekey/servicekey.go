package servicekey

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DeviceConnectivityEndpoint string = "iot-device-connectivity"
	DataMappingEndpoint        string = "tm-data-mapping"
)

type UAA struct {
	URL          string `json:"url"`
	ClientID     string `json:"clientid"`
	ClientSecret string `json:"clientsecret"`
}

// ServiceKey holds the parts of an IoT service key that are needed to talk to
// the device model service.
type ServiceKey struct {
	Endpoints map[string]string `json:"endpoints"`
	UAA       UAA               `json:"uaa"`
}

func Load(r io.Reader) (*ServiceKey, error) {
	sk := &ServiceKey{}

	if err := json.NewDecoder(r).Decode(sk); err != nil {
		return nil, fmt.Errorf("failed to decode service key: %w", err)
	}

	if err := sk.validate(); err != nil {
		return nil, err
	}

	return sk, nil
}

func LoadFile(path string) (*ServiceKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open service key file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func (sk ServiceKey) validate() error {
	if sk.DeviceConnectivityURL() == "" {
		return fmt.Errorf("service key has no %s endpoint", DeviceConnectivityEndpoint)
	}

	if sk.UAA.URL == "" || sk.UAA.ClientID == "" || sk.UAA.ClientSecret == "" {
		return fmt.Errorf("service key has incomplete uaa credentials")
	}

	if sk.XSAppName() == "" {
		return fmt.Errorf("service key client id %q has no application name", sk.UAA.ClientID)
	}

	return nil
}

func (sk ServiceKey) DeviceConnectivityURL() string {
	return sk.Endpoints[DeviceConnectivityEndpoint]
}

// DataMappingURL returns the data mapping endpoint, or the device connectivity
// endpoint when the key does not list one.
func (sk ServiceKey) DataMappingURL() string {
	if endpoint, ok := sk.Endpoints[DataMappingEndpoint]; ok && endpoint != "" {
		return endpoint
	}
	return sk.DeviceConnectivityURL()
}

// XSAppName is the application name part of a client id on the form
// "<client>|<xsappname>".
func (sk ServiceKey) XSAppName() string {
	_, appName, found := strings.Cut(sk.UAA.ClientID, "|")
	if !found {
		return ""
	}
	return appName
}

func (sk ServiceKey) ReadScope() string {
	return sk.XSAppName() + ".dc.r"
}

func (sk ServiceKey) tokenConfig(scopes []string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     sk.UAA.ClientID,
		ClientSecret: sk.UAA.ClientSecret,
		TokenURL:     strings.TrimSuffix(sk.UAA.URL, "/") + "/oauth/token",
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
		EndpointParams: map[string][]string{
			"response_type": {"token"},
		},
	}
}

func withInstrumentedClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// TokenSource returns a token source that requests and refreshes access
// tokens using the client credentials flow. Defaults to the read scope.
func (sk ServiceKey) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	if len(scopes) == 0 {
		scopes = []string{sk.ReadScope()}
	}

	return sk.tokenConfig(scopes).TokenSource(withInstrumentedClient(ctx))
}

// HTTPClient returns an http client that authorizes every request with a
// bearer token from TokenSource.
func (sk ServiceKey) HTTPClient(ctx context.Context, scopes ...string) *http.Client {
	return oauth2.NewClient(withInstrumentedClient(ctx), sk.TokenSource(ctx, scopes...))
}
