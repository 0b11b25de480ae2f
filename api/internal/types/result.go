package types

// Result is the structured answer produced by the model.
type Result struct {
	FinalAnswer string   `json:"finalAnswer"`
	Steps       []string `json:"steps"`
	Quiz        Quiz     `json:"quiz"`
}

// Quiz is a practice question similar to the solved one.
type Quiz struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"` // 4 items expected
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// Valid reports whether the quiz can be rendered and answered.
func (q Quiz) Valid() bool {
	return q.Question != "" && len(q.Options) > 0 &&
		q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

// Document is the wire shape the model is instructed to return.
type Document struct {
	Solution *struct {
		Ans   string   `json:"ans"`
		Steps []string `json:"steps"`
	} `json:"solution"`
	Quiz *struct {
		Q       string   `json:"q"`
		Opt     []string `json:"opt"`
		Correct int      `json:"correct"`
		Reason  string   `json:"reason"`
	} `json:"quiz"`
}

// Result maps the wire document onto Result. Steps is never nil.
func (d Document) Result() Result {
	var r Result
	if d.Solution != nil {
		r.FinalAnswer = d.Solution.Ans
		r.Steps = d.Solution.Steps
	}
	if r.Steps == nil {
		r.Steps = []string{}
	}
	if d.Quiz != nil {
		r.Quiz = Quiz{
			Question:     d.Quiz.Q,
			Options:      d.Quiz.Opt,
			CorrectIndex: d.Quiz.Correct,
			Explanation:  d.Quiz.Reason,
		}
	}
	return r
}
