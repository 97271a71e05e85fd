package httpapi

import (
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/topics"
	"github.com/jswider/quizforge/internal/workflow"
)

// topicView is one topic as presented to the client.
type topicView struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// negotiationView is the feedback-loop portion of a session.
type negotiationView struct {
	Status   string      `json:"status"`
	Revision int         `json:"revision"`
	Topics   []topicView `json:"topics"`
	Rounds   int         `json:"rounds"`
	Warnings []string    `json:"warnings,omitempty"`
}

// questionView presents a question without its answer key.
type questionView struct {
	ID         string   `json:"id"`
	Topic      string   `json:"topic"`
	Prompt     string   `json:"prompt"`
	Kind       string   `json:"kind"`
	Choices    []string `json:"choices,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// quizView is the quiz portion of a session.
type quizView struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Score    float64       `json:"score"`
	Current  *questionView `json:"current_question,omitempty"`
	Finished bool          `json:"finished"`
}

// sessionView is the full client-facing snapshot.
type sessionView struct {
	SessionID   string           `json:"session_id"`
	Phase       string           `json:"phase"`
	Negotiation *negotiationView `json:"negotiation,omitempty"`
	Quiz        *quizView        `json:"quiz,omitempty"`
	Report      *quiz.Report     `json:"report,omitempty"`
}

func viewTopics(set *topics.Set) (out []topicView) {
	if set == nil {
		return nil
	}
	for _, t := range set.Topics {
		out = append(out, topicView{ID: t.ID, Name: t.Name, Weight: t.Weight})
	}
	return out
}

func viewQuestion(q *quizgen.Question) *questionView {
	if q == nil {
		return nil
	}
	return &questionView{
		ID:         q.ID,
		Topic:      q.Topic,
		Prompt:     q.Prompt,
		Kind:       string(q.Kind),
		Choices:    q.Choices,
		Difficulty: string(q.Difficulty),
	}
}

func newSessionView(state *workflow.State, current *quizgen.Question) *sessionView {
	v := &sessionView{SessionID: state.SessionID, Phase: string(state.Phase)}

	if n := state.Negotiation; n != nil {
		nv := &negotiationView{
			Status:   string(n.Status),
			Topics:   viewTopics(n.Set),
			Rounds:   n.Rounds,
			Warnings: n.Warnings,
		}
		if n.Set != nil {
			nv.Revision = n.Set.Revision
		}
		v.Negotiation = nv
	}

	if q := state.Quiz; q != nil {
		v.Quiz = &quizView{
			Index:    q.Index,
			Total:    len(q.Questions),
			Score:    q.Score,
			Current:  viewQuestion(current),
			Finished: q.Status == quiz.StatusCompleted,
		}
		if q.Status == quiz.StatusCompleted {
			rep := quiz.Results(q)
			v.Report = &rep
		}
	}
	return v
}
