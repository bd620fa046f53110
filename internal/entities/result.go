package entities

import (
	"errors"
	"fmt"
)

// Label is a concept detected in an image with its confidence in [0, 1].
type Label struct {
	Name       string
	Confidence float64
}

// String renders the label the way it is fed to the model, e.g. "dog (97.50%)".
func (l Label) String() string {
	return fmt.Sprintf("%s (%.2f%%)", l.Name, l.Confidence*100)
}

// Extraction is what the content extractor produced for one file:
// plain text for documents, labels for images.
type Extraction struct {
	Text   string
	Labels []Label
}

// Result is the outcome of one gateway call. Text is the display string on
// success; on failure Text holds the fixed user-facing message and Err the cause.
type Result struct {
	Text string
	Err  error
}

func Success(text string) Result {
	return Result{Text: text}
}

func Failure(message string, err error) Result {
	if err == nil {
		err = errors.New(message)
	}
	return Result{Text: message, Err: err}
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Display returns the string shown to the user whatever the outcome.
func (r Result) Display() string {
	return r.Text
}
