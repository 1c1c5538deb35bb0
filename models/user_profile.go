package models

// PatientOnboardingData holds preferences collected during patient onboarding.
type PatientOnboardingData struct {
	ShareSummariesWithTherapist *bool `dynamodbav:"shareSummariesWithTherapist,omitempty" json:"shareSummariesWithTherapist,omitempty"`
}

// UserProfile defines the structure for user profiles. Only the fields the
// backend reads are modelled; the mobile app owns the rest of the document.
type UserProfile struct {
	UserID         string                 `dynamodbav:"userId" json:"userId"`
	FullName       string                 `dynamodbav:"fullName,omitempty" json:"fullName,omitempty"`
	EmailID        string                 `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Role           string                 `dynamodbav:"role,omitempty" json:"role,omitempty"`
	TherapistID    string                 `dynamodbav:"therapistId,omitempty" json:"therapistId,omitempty"`
	OnboardingData *PatientOnboardingData `dynamodbav:"patientOnboardingData,omitempty" json:"patientOnboardingData,omitempty"`
}

// SharesSummaries reports the patient's summary-sharing preference,
// defaulting to true when the profile does not state one.
func (p UserProfile) SharesSummaries() bool {
	if p.OnboardingData == nil || p.OnboardingData.ShareSummariesWithTherapist == nil {
		return true
	}
	return *p.OnboardingData.ShareSummariesWithTherapist
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
