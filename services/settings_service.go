package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"therapii_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/caarlos0/env/v11"
)

// defaultSenderEmail is used when neither the stored config nor the
// environment names a sender.
const defaultSenderEmail = "no-reply@therapii.app"

// EnvConfig is the process environment surface of the server.
type EnvConfig struct {
	Port              string `env:"PORT" envDefault:"8080"`
	AWSRegion         string `env:"AWS_REGION"`
	AuthJWTSecret     string `env:"AUTH_JWT_SECRET"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridAPIKeyID  string `env:"SENDGRID_API_KEY_ID"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
}

// LoadEnvConfig parses the process environment.
func LoadEnvConfig() (EnvConfig, error) {
	return env.ParseAs[EnvConfig]()
}

// SendGridConfig is the resolved email delivery configuration.
type SendGridConfig struct {
	APIKey    string
	APIKeyID  string
	FromEmail string
	Enabled   bool
}

// SettingsService resolves runtime credentials per invocation. Stored admin
// settings and the environment have a defined precedence per credential; no
// result is cached across invocations.
type SettingsService struct {
	Dynamo *DynamoService

	// LoadEnv is called once per resolution; overridable in tests.
	LoadEnv func() (EnvConfig, error)
}

func (s *SettingsService) loadEnv() EnvConfig {
	loadEnv := s.LoadEnv
	if loadEnv == nil {
		loadEnv = LoadEnvConfig
	}
	cfg, err := loadEnv()
	if err != nil {
		log.Printf("Failed to parse environment config: %v", err)
		return EnvConfig{}
	}
	return cfg
}

// ResolveSendGrid resolves email delivery configuration. A stored admin
// record carrying an API key wins over the environment; with no key anywhere
// the result is disabled.
func (s *SettingsService) ResolveSendGrid(ctx context.Context) SendGridConfig {
	envCfg := s.loadEnv()

	stored, err := s.getSendGridSetting(ctx)
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		log.Printf("Failed to fetch SendGrid config from settings store: %v", err)
	}

	if stored != nil && strings.TrimSpace(stored.APIKey) != "" {
		enabled := true
		if stored.Enabled != nil {
			enabled = *stored.Enabled
		}
		from := strings.TrimSpace(stored.FromEmail)
		if from == "" {
			from = s.senderFallback(envCfg)
		}
		return SendGridConfig{
			APIKey:    strings.TrimSpace(stored.APIKey),
			APIKeyID:  strings.TrimSpace(stored.APIKeyID),
			FromEmail: from,
			Enabled:   enabled,
		}
	}

	envKey := strings.TrimSpace(envCfg.SendGridAPIKey)
	return SendGridConfig{
		APIKey:    envKey,
		APIKeyID:  strings.TrimSpace(envCfg.SendGridAPIKeyID),
		FromEmail: s.senderFallback(envCfg),
		Enabled:   envKey != "",
	}
}

func (s *SettingsService) senderFallback(envCfg EnvConfig) string {
	if from := strings.TrimSpace(envCfg.SendGridFromEmail); from != "" {
		return from
	}
	return defaultSenderEmail
}

// ResolveOpenAIKey resolves the AI credential. The environment wins over the
// stored admin record; an empty result means the proxy is not configured.
func (s *SettingsService) ResolveOpenAIKey(ctx context.Context) string {
	envCfg := s.loadEnv()
	if key := strings.TrimSpace(envCfg.OpenAIAPIKey); key != "" {
		return key
	}

	item, err := s.Dynamo.GetItem(ctx, models.AdminSettingsTable, map[string]types.AttributeValue{
		"settingId": &types.AttributeValueMemberS{Value: models.OpenAISettingID},
	})
	if err != nil {
		if !errors.Is(err, ErrItemNotFound) {
			log.Printf("Failed to fetch OpenAI config from settings store: %v", err)
		}
		return ""
	}

	var setting models.OpenAISetting
	if err := attributevalue.UnmarshalMap(item, &setting); err != nil {
		log.Printf("Failed to unmarshal OpenAI config: %v", err)
		return ""
	}
	return strings.TrimSpace(setting.APIKey)
}

// ResolveOpenAIBaseURL returns the completion API base URL without a
// trailing slash.
func (s *SettingsService) ResolveOpenAIBaseURL() string {
	envCfg := s.loadEnv()
	return strings.TrimRight(envCfg.OpenAIBaseURL, "/")
}

func (s *SettingsService) getSendGridSetting(ctx context.Context) (*models.SendGridSetting, error) {
	item, err := s.Dynamo.GetItem(ctx, models.AdminSettingsTable, map[string]types.AttributeValue{
		"settingId": &types.AttributeValueMemberS{Value: models.SendGridSettingID},
	})
	if err != nil {
		return nil, err
	}
	var setting models.SendGridSetting
	if err := attributevalue.UnmarshalMap(item, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}
