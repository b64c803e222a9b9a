package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/qapulse/qapulse/internal/models"
)

// ToProtoAnswer converts an Answer into a Struct with the same JSON shape as the HTTP API.
func ToProtoAnswer(answer models.Answer) (*structpb.Struct, error) {
	return toStruct(answer)
}

// ToProtoSuggestions wraps the suggestion list as {"suggestions": [...]}.
func ToProtoSuggestions(suggestions []models.Suggestion) (*structpb.Struct, error) {
	return toStruct(map[string]any{"suggestions": suggestions})
}

// FromProtoAnswer decodes a Struct produced by ToProtoAnswer.
func FromProtoAnswer(s *structpb.Struct) (models.Answer, error) {
	var answer models.Answer
	if s == nil {
		return answer, fmt.Errorf("nil answer")
	}
	data, err := s.MarshalJSON()
	if err != nil {
		return answer, fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, &answer); err != nil {
		return answer, fmt.Errorf("decode answer: %w", err)
	}
	return answer, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return structpb.NewStruct(fields)
}
