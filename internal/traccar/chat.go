package traccar

import (
	"context"
	"net/http"
)

// DefaultHoursOfData is the analysis window used when ChatRequest.HoursOfData is 0.
const DefaultHoursOfData = 24

// ChatService talks to the fleet assistant.
type ChatService service

type chatBody struct {
	DeviceID            int64         `json:"device_id"`
	Message             string        `json:"message"`
	HoursOfData         int           `json:"hours_of_data"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// Send asks the assistant a question about one device. It uses the chat timeout
// rather than the default one.
func (s *ChatService) Send(ctx context.Context, r ChatRequest) (*ChatResponse, error) {
	body := chatBody{
		DeviceID:            r.DeviceID,
		Message:             r.Message,
		HoursOfData:         r.HoursOfData,
		ConversationHistory: r.ConversationHistory,
	}
	if body.HoursOfData == 0 {
		body.HoursOfData = DefaultHoursOfData
	}
	if body.ConversationHistory == nil {
		body.ConversationHistory = []ChatMessage{}
	}

	var out ChatResponse
	err := s.client.do(ctx, call{
		method:  http.MethodPost,
		path:    "/chat",
		body:    body,
		timeout: s.client.chatTimeout,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
