package enums

type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

type QuestionSource string

const (
	SourceAIGenerated QuestionSource = "ai_generated"
	SourceScraped     QuestionSource = "scraped"
	SourceManual      QuestionSource = "manual"
)

type QuestionStatus string

const (
	QuestionStatusDraft         QuestionStatus = "draft"
	QuestionStatusPendingReview QuestionStatus = "pending_review"
	QuestionStatusApproved      QuestionStatus = "approved"
	QuestionStatusRejected      QuestionStatus = "rejected"
)
