package dto

type NextQuestionResponse struct {
	Question QuestionResponse  `json:"question"`
	Topic    TopicResponse     `json:"topic"`
	Mode     string            `json:"mode"`
	Weakness *WeaknessResponse `json:"weakness,omitempty"`
}
