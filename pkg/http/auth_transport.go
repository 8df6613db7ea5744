package http

import "net/http"

// Credentials are the per-service auth headers. Empty values are not sent.
type Credentials struct {
	Token    string
	TokenID  string
	TokenKey string
}

type authTransport struct {
	creds     Credentials
	transport http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	if t.creds.Token != "" {
		reqCopy.Header.Set("Authorization", "Bearer "+t.creds.Token)
	}
	if t.creds.TokenID != "" {
		reqCopy.Header.Set("Token-id", t.creds.TokenID)
	}
	if t.creds.TokenKey != "" {
		reqCopy.Header.Set("Token-key", t.creds.TokenKey)
	}

	return t.transport.RoundTrip(reqCopy)
}

func WithCredentials(creds Credentials) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &authTransport{
			creds:     creds,
			transport: rt,
		}
	})
}
