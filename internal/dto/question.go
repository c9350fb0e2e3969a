package dto

type AskRequest struct {
	Question string `json:"question"`
}

type AnswerResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
