package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"

	"expenseapi/genai"
)

func init() {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lshortfile)
}

func parsePayload(p interface{}) *bytes.Buffer {
	data, _ := json.Marshal(p)
	return bytes.NewBuffer(data)
}

// stubAI replays a canned model reply and records every prompt it receives.
type stubAI struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubAI) Generate(ctx context.Context, prompt string, image *genai.Image) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}
