// Package signer mints short-lived, resource-scoped signed URLs for the
// delivery layer. Issuance is a pure function of (resource, clock, key):
// no state, no locking, trivially parallel.
package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "github.com/spec-kit/content-gateway/pkg/util"
)

// Signer signs delivery-layer URLs with the distribution's private key.
type Signer struct {
	domain     string
	keyPairID  string
	privateKey *rsa.PrivateKey
	defaultTTL time.Duration

	now func() time.Time
}

// Options restricts a grant beyond its expiry.
type Options struct {
	// SourceIP limits the grant to one client address or CIDR range.
	SourceIP string
	// NotBefore delays grant validity until an absolute instant.
	NotBefore time.Time
}

// Grant is an issued credential. ExpiresAt is always absolute; the
// delivery layer enforces it, not this system.
type Grant struct {
	URL       string
	ExpiresAt time.Time
}

// New builds a Signer. Missing key material is tolerated here so the
// origin API can still serve catalog and auth traffic; every Sign call
// then fails closed with CONFIGURATION_ERROR.
func New(domain, keyPairID, privateKeyPath string, defaultTTL time.Duration) (*Signer, error) {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	s := &Signer{
		domain:     strings.TrimSuffix(domain, "/"),
		keyPairID:  keyPairID,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	if privateKeyPath == "" {
		return s, nil
	}

	pemBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	key, err := parsePrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	s.privateKey = key
	return s, nil
}

// Configured reports whether key material is present.
func (s *Signer) Configured() bool {
	return s.domain != "" && s.keyPairID != "" && s.privateKey != nil
}

// Sign issues a grant for exactly one resource. The resource named in
// the returned policy is the resourceKey passed in, byte for byte; the
// caller must have authorized that same key.
func (s *Signer) Sign(resourceKey string, ttl time.Duration, opts *Options) (*Grant, error) {
	if !s.Configured() {
		return nil, apperrors.NewConfigurationError("url signing key material not configured")
	}
	if resourceKey == "" {
		return nil, apperrors.NewValidationError("resource key required", nil)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	expiresAt := s.now().Add(ttl)
	resourceURL := fmt.Sprintf("https://%s/%s", s.domain, strings.TrimPrefix(resourceKey, "/"))

	policyJSON, err := buildPolicy(resourceURL, expiresAt, opts)
	if err != nil {
		return nil, err
	}

	digest := sha1.Sum(policyJSON)
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA1, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign policy: %w", err)
	}

	url := fmt.Sprintf("%s?Policy=%s&Signature=%s&Key-Pair-Id=%s&Expires=%d",
		resourceURL,
		policyEncode(policyJSON),
		policyEncode(signature),
		s.keyPairID,
		expiresAt.Unix(),
	)
	return &Grant{URL: url, ExpiresAt: expiresAt}, nil
}

// policyStatement mirrors the delivery layer's custom-policy schema.
type policyStatement struct {
	Resource  string          `json:"Resource"`
	Condition policyCondition `json:"Condition"`
}

type policyCondition struct {
	DateLessThan    epochTime  `json:"DateLessThan"`
	IPAddress       *sourceIP  `json:"IpAddress,omitempty"`
	DateGreaterThan *epochTime `json:"DateGreaterThan,omitempty"`
}

type epochTime struct {
	EpochTime int64 `json:"AWS:EpochTime"`
}

type sourceIP struct {
	SourceIP string `json:"AWS:SourceIp"`
}

func buildPolicy(resourceURL string, expiresAt time.Time, opts *Options) ([]byte, error) {
	cond := policyCondition{DateLessThan: epochTime{EpochTime: expiresAt.Unix()}}
	if opts != nil {
		if opts.SourceIP != "" {
			cond.IPAddress = &sourceIP{SourceIP: opts.SourceIP}
		}
		if !opts.NotBefore.IsZero() {
			if !opts.NotBefore.Before(expiresAt) {
				return nil, apperrors.NewValidationError("not-before must precede expiry", nil)
			}
			cond.DateGreaterThan = &epochTime{EpochTime: opts.NotBefore.Unix()}
		}
	}

	policy := struct {
		Statement []policyStatement `json:"Statement"`
	}{
		Statement: []policyStatement{{Resource: resourceURL, Condition: cond}},
	}
	return json.Marshal(policy)
}

// policyEncode applies the delivery layer's URL-safe base64 variant.
func policyEncode(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	replacer := strings.NewReplacer("+", "-", "=", "_", "/", "~")
	return replacer.Replace(encoded)
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not RSA")
	}
	return key, nil
}
