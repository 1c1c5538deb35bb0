package models

// AdminSettingsTable is the DynamoDB table name for operator-managed settings
const AdminSettingsTable = "AdminSettings"

// Setting document ids within the admin settings table
const (
	SendGridSettingID = "sendgrid_config"
	OpenAISettingID   = "openai_config"
)

// SendGridSetting is the operator-stored email delivery configuration.
// A stored record with an API key takes priority over environment defaults.
type SendGridSetting struct {
	SettingID string `dynamodbav:"settingId" json:"settingId"`
	APIKey    string `dynamodbav:"apiKey,omitempty" json:"apiKey,omitempty"`
	APIKeyID  string `dynamodbav:"apiKeyId,omitempty" json:"apiKeyId,omitempty"`
	FromEmail string `dynamodbav:"fromEmail,omitempty" json:"fromEmail,omitempty"`
	Enabled   *bool  `dynamodbav:"enabled,omitempty" json:"enabled,omitempty"`
}

// OpenAISetting is the operator-stored AI credential. The environment
// variable takes priority over this record.
type OpenAISetting struct {
	SettingID string `dynamodbav:"settingId" json:"settingId"`
	APIKey    string `dynamodbav:"apiKey,omitempty" json:"apiKey,omitempty"`
}
