package domain

import "math"

// answerEpsilon absorbs floating-point error when checking submitted answers.
const answerEpsilon = 1e-8

// Question is an immutable scoring fact: the correct answer and how many
// points it is worth. A question has no stored number; its number is its
// 1-based position in the owning contest's question sequence.
type Question struct {
	CorrectAnswer float64 `json:"correctAnswer"`
	PointValue    int     `json:"pointValue"`
}

func NewQuestion(correctAnswer float64, pointValue int) *Question {
	return &Question{CorrectAnswer: correctAnswer, PointValue: pointValue}
}

// Verify reports whether a submitted answer matches the correct one, within
// a strict absolute tolerance.
func (q *Question) Verify(submitted float64) bool {
	return math.Abs(submitted-q.CorrectAnswer) < answerEpsilon
}

// Number returns the question's 1-based position within the given contest.
// The contest is passed in explicitly; questions hold no back-reference.
func (q *Question) Number(c *Contest) (int, error) {
	for i, question := range c.Questions {
		if question == q {
			return i + 1, nil
		}
	}
	return 0, ErrQuestionNotFound
}
