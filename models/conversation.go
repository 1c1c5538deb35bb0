package models

// TranscriptPart is one sanitized turn of an AI companion conversation.
type TranscriptPart struct {
	Role string `dynamodbav:"role" json:"role"`
	Text string `dynamodbav:"text" json:"text"`
}

// AiConversationSummary is an append-only record of a patient's AI
// companion session. Written once, never mutated.
type AiConversationSummary struct {
	ID                 string           `dynamodbav:"id" json:"id"`
	PatientID          string           `dynamodbav:"patientId" json:"patientId"`
	TherapistID        string           `dynamodbav:"therapistId" json:"therapistId"`
	Summary            string           `dynamodbav:"summary" json:"summary"`
	Transcript         []TranscriptPart `dynamodbav:"transcript" json:"transcript"`
	ShareWithTherapist bool             `dynamodbav:"shareWithTherapist" json:"shareWithTherapist"`
	CreatedAt          string           `dynamodbav:"createdAt" json:"createdAt"`
}

// AiConversationSummariesTable is the DynamoDB table name for summaries
const AiConversationSummariesTable = "AiConversationSummaries"
