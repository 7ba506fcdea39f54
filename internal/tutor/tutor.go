package tutor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/learnloop/tutorbook/internal/retrieval"
	"github.com/learnloop/tutorbook/internal/store"
)

const historyWindow = 20

// Searcher retrieves textbook context for a query.
type Searcher interface {
	Search(ctx context.Context, query, userText string, topK int) retrieval.SearchResponse
}

// ProfileFetcher loads a user's personalization profile.
type ProfileFetcher func(ctx context.Context, userID string) (store.Profile, error)

// Request is a single chat turn from a user.
type Request struct {
	Query        string
	SessionID    string
	UserID       string
	SelectedText string
}

// Answer is the tutor's reply with the sources that grounded it.
type Answer struct {
	Response  string
	Sources   []retrieval.RetrievedChunk
	SessionID string
}

// Tutor answers textbook questions grounded in retrieved chunks,
// tailored to the user's profile and conversation history.
type Tutor struct {
	Search   Searcher
	Profiles ProfileFetcher
	LLM      Provider
	History  History
	TopK     int
	Logger   *log.Logger
}

func (t *Tutor) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.New(log.Writer(), "[TUTOR] ", log.LstdFlags)
}

func (t *Tutor) Answer(ctx context.Context, req Request) (Answer, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Answer{}, fmt.Errorf("query is empty")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	profile := store.Profile{
		ExperienceLevel: store.DefaultExperienceLevel,
		Background:      store.DefaultBackground,
		Language:        store.DefaultLanguage,
	}
	if req.UserID != "" && t.Profiles != nil {
		p, err := t.Profiles(ctx, req.UserID)
		if err != nil {
			t.logger().Printf("profile lookup failed for %s, using defaults: %v", req.UserID, err)
		} else {
			profile = p
		}
	}

	topK := t.TopK
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	rag := t.Search.Search(ctx, req.Query, req.SelectedText, topK)

	messages := []Message{{Role: RoleSystem, Content: systemPrompt(profile)}}
	if t.History != nil {
		prior, err := t.History.List(ctx, sessionID, historyWindow)
		if err != nil {
			t.logger().Printf("history load failed for %s: %v", sessionID, err)
		} else {
			messages = append(messages, prior...)
		}
	}
	messages = append(messages, Message{Role: RoleUser, Content: userPrompt(req.Query, rag.Chunks)})

	reply, err := t.LLM.ChatCompletion(ctx, messages)
	if err != nil {
		return Answer{}, fmt.Errorf("chat completion: %w", err)
	}

	if t.History != nil {
		if err := t.History.Append(ctx, sessionID,
			Message{Role: RoleUser, Content: req.Query},
			Message{Role: RoleAssistant, Content: reply},
		); err != nil {
			t.logger().Printf("history append failed for %s: %v", sessionID, err)
		}
	}

	return Answer{Response: reply, Sources: rag.Chunks, SessionID: sessionID}, nil
}

func systemPrompt(p store.Profile) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI tutor for a textbook on Physical AI and humanoid robotics.\n")
	b.WriteString("Answer questions using ONLY the textbook context provided in each message.\n")
	b.WriteString("If the context does not contain the answer, say \"I don't have that information in the textbook.\"\n")
	b.WriteString("Cite the chapter and section you drew from when it helps the student.\n\n")
	fmt.Fprintf(&b, "Student experience level: %s.\n", p.ExperienceLevel)
	if p.Background != "" {
		fmt.Fprintf(&b, "Student background: %s\n", p.Background)
	}
	switch p.ExperienceLevel {
	case "beginner":
		b.WriteString("Explain concepts from first principles and avoid unexplained jargon.\n")
	case "advanced":
		b.WriteString("Be concise and technical. Skip introductory material.\n")
	default:
		b.WriteString("Balance clarity with technical depth.\n")
	}
	if p.Language != "" && !strings.EqualFold(p.Language, "english") {
		fmt.Fprintf(&b, "Respond in %s.\n", p.Language)
	}
	return b.String()
}

func userPrompt(query string, chunks []retrieval.RetrievedChunk) string {
	var b strings.Builder
	if len(chunks) == 0 {
		b.WriteString("No textbook context was found for this question.\n\n")
	} else {
		b.WriteString("Textbook context:\n\n")
		for i, c := range chunks {
			fmt.Fprintf(&b, "[%d] %s / %s\n%s\n\n", i+1, c.Chapter, c.Section, c.Content)
		}
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
