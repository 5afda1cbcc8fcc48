package catalog

// Game type tags referenced by levels.
const (
	GameTypeMCQ = "mcq"
	GameTypeFIB = "fib"
)

// Theme is a named, ordered collection of levels.
type Theme struct {
	Name   string  `json:"theme"`
	Levels []Level `json:"levels"`
}

// Level is one stage of a theme. IDs are dense and contiguous from 0 within
// a theme (validated at load time); the unlock ledger keys off them.
type Level struct {
	ID             int    `json:"id"`
	DisplayName    string `json:"displayName"`
	GameType       string `json:"gameType"`
	QuestionSetURL string `json:"questionSetUrl"`
}

// Question is one entry of a level's question set, fetched lazily at
// level-select time. Answer holds the option identifiers for MCQ questions
// (one or more); CorrectAnswers is the positional blank sequence for FIB
// questions. Image references ride along opaquely for the client.
type Question struct {
	ID             int      `json:"id"`
	Prompt         string   `json:"question"`
	PromptImage    string   `json:"questionImage,omitempty"`
	Options        []string `json:"options"`
	OptionImages   []string `json:"optionImages,omitempty"`
	Answer         []string `json:"answer,omitempty"`
	CorrectAnswers []string `json:"correctAnswers,omitempty"`
}

// Sanitized returns a copy with the answers stripped, safe to send to
// clients before they play.
func (q Question) Sanitized() Question {
	q.Answer = nil
	q.CorrectAnswers = nil
	return q
}
