package dto

type CertificationResponse struct {
	ID                     int64   `json:"id"`
	Provider               string  `json:"provider"`
	Name                   string  `json:"name"`
	ShortName              string  `json:"short_name"`
	Description            *string `json:"description,omitempty"`
	ExamDurationMinutes    int     `json:"exam_duration_minutes"`
	ExamQuestionCount      int     `json:"exam_question_count"`
	PassingScorePercentage int     `json:"passing_score_percentage"`
}

type CertificationListResponse struct {
	Certifications []CertificationResponse `json:"certifications"`
}

type TopicResponse struct {
	ID               int64   `json:"id"`
	CertificationID  int64   `json:"certification_id"`
	Name             string  `json:"name"`
	Description      *string `json:"description,omitempty"`
	WeightPercentage int     `json:"weight_percentage"`
	Order            int     `json:"order"`
}

type TopicListResponse struct {
	Topics []TopicResponse `json:"topics"`
}

// QuestionResponse is the client view of a question. The correct answer and
// explanation are withheld; they come back only in the attempt result.
type QuestionResponse struct {
	ID           int64             `json:"id"`
	TopicID      int64             `json:"topic_id"`
	QuestionText string            `json:"question_text"`
	Options      map[string]string `json:"options"`
	Difficulty   string            `json:"difficulty"`
	ImageURL     *string           `json:"image_url,omitempty"`
}

type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

type SetActiveCertificationRequest struct {
	CertificationID int64 `json:"certification_id"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type UploadImageResponse struct {
	URL string `json:"url"`
}
