package quiz

import "github.com/jswider/quizforge/internal/quizgen"

// TopicResult aggregates answers for one topic.
type TopicResult struct {
	Topic    string  `json:"topic"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
	Score    float64 `json:"score"`
}

// Report is the final summary produced once the session completes.
type Report struct {
	Total    int           `json:"total"`
	Answered int           `json:"answered"`
	Correct  int           `json:"correct"`
	Score    float64       `json:"score"`
	ByTopic  []TopicResult `json:"by_topic"`
}

// Results summarizes the state so far. It works on in-progress states
// too, covering what has been answered.
func Results(state *State) Report {
	rep := Report{Total: len(state.Questions), Answered: len(state.Records), Score: state.Score}

	byID := make(map[string]*quizgen.Question, len(state.Questions))
	for _, q := range state.Questions {
		byID[q.ID] = q
	}

	order := make([]string, 0)
	perTopic := make(map[string]*TopicResult)
	for _, r := range state.Records {
		q := byID[r.QuestionID]
		if q == nil {
			continue
		}
		tr := perTopic[q.TopicID]
		if tr == nil {
			tr = &TopicResult{Topic: q.Topic}
			perTopic[q.TopicID] = tr
			order = append(order, q.TopicID)
		}
		tr.Answered++
		tr.Score += r.Score
		if r.Correct {
			tr.Correct++
			rep.Correct++
		}
	}
	for _, id := range order {
		tr := perTopic[id]
		tr.Score /= float64(tr.Answered)
		rep.ByTopic = append(rep.ByTopic, *tr)
	}
	return rep
}
