package mongodb

const (
	CredentialsCollection    = "google_credentials"   // one service account per user
	SubmissionLogsCollection = "indexing_submissions" // publish history
)
