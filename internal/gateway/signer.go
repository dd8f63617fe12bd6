package gateway

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog/log"
)

const bedrockRuntimeService = "bedrock"

// Signer computes AWS SigV4 headers for Bedrock requests. One instance is
// shared process-wide (it holds only an optional default credential chain
// loaded once at startup); every Sign call is independent and safe for
// concurrent use.
type Signer struct {
	signer        *v4.Signer
	defaultCreds  aws.CredentialsProvider
	defaultRegion string
	hasDefault    bool
}

// NewSigner builds a Signer, optionally seeding it with static default
// credentials (from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY) or else falling
// back to the standard AWS credential chain (shared config, IAM role, etc).
// A request's own x-aws-* headers always take precedence over this default.
func NewSigner(defaultRegion, defaultAccessKey, defaultSecretKey string) *Signer {
	region := defaultRegion
	if region == "" {
		region = "us-east-1"
	}

	s := &Signer{signer: v4.NewSigner(), defaultRegion: region}

	if defaultAccessKey != "" && defaultSecretKey != "" {
		s.defaultCreds = credentials.NewStaticCredentialsProvider(defaultAccessKey, defaultSecretKey, "")
		s.hasDefault = true
		return s
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		log.Warn().Err(err).Msg("failed to load default AWS credential chain for bedrock signer")
		return s
	}
	if _, err := cfg.Credentials.Retrieve(context.Background()); err != nil {
		log.Debug().Err(err).Msg("no default AWS credentials available for bedrock signer")
		return s
	}
	s.defaultCreds = cfg.Credentials
	s.hasDefault = true
	return s
}

// ResolveCredentials prefers header-supplied credentials, falling back to
// the signer's process-wide default when the request didn't carry its own.
func (s *Signer) ResolveCredentials(ctx context.Context, headerAccessKey, headerSecretKey, headerRegion string) (aws.Credentials, string, error) {
	region := headerRegion
	if region == "" {
		region = s.defaultRegion
	}

	if headerAccessKey != "" && headerSecretKey != "" {
		return aws.Credentials{AccessKeyID: headerAccessKey, SecretAccessKey: headerSecretKey}, region, nil
	}

	if !s.hasDefault {
		return aws.Credentials{}, region, NewError(KindAWSParamsError, "no AWS credentials available for bedrock request")
	}

	creds, err := s.defaultCreds.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, region, WrapError(KindAWSParamsError, "failed to retrieve default AWS credentials", err)
	}
	return creds, region, nil
}

// Sign computes SigV4 headers for an outbound Bedrock request and writes
// them onto req.Header in place. req.Host/req.URL must already equal host.
// The minimum signed header set is host, content-type, x-amz-target and
// x-amz-date; any other pass-through header present on req is signed too.
func (s *Signer) Sign(ctx context.Context, req *http.Request, body []byte, creds aws.Credentials, region string) error {
	req.Header.Set("x-amz-target", "bedrock-runtime.InvokeModel")
	req.Header.Set("x-amz-date", time.Now().UTC().Format("20060102T150405Z"))

	payloadHash := fmt.Sprintf("%x", sha256.Sum256(body))
	if err := s.signer.SignHTTP(ctx, creds, req, payloadHash, bedrockRuntimeService, region, time.Now()); err != nil {
		return WrapError(KindAWSSigningError, "sigv4 signing failed", err)
	}
	return nil
}
