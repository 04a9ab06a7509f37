package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/siteqa"
)

// SynthesizerConfig configures a Synthesizer.
type SynthesizerConfig struct {
	Organization       string
	Temperature        float64
	MaxTokens          int
	MaxContextChars    int
	NoAnswerPhrases    []string
	InsufficientAnswer string
}

// Synthesizer turns retrieved evidence into an answer using a Completer.
type Synthesizer struct {
	completer siteqa.Completer
	cfg       SynthesizerConfig
}

// NewSynthesizer returns a Synthesizer. Empty fields of cfg take defaults.
func NewSynthesizer(completer siteqa.Completer, cfg SynthesizerConfig) *Synthesizer {
	if cfg.Organization == "" {
		cfg.Organization = "the organization"
	}
	if cfg.InsufficientAnswer == "" {
		cfg.InsufficientAnswer = siteqa.DefaultInsufficientAnswer
	}
	if cfg.NoAnswerPhrases == nil {
		cfg.NoAnswerPhrases = siteqa.DefaultNoAnswerPhrases
	}
	return &Synthesizer{completer: completer, cfg: cfg}
}

// Synthesize answers the question from the evidence. Only the evidence that
// fits the context budget is sent to the model and reported. Without such
// evidence it returns the insufficient-information answer without calling
// the model.
// Completer errors are returned as is.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, evidence []siteqa.Evidence, debug bool) (*siteqa.AnswerResult, error) {
	block, evidence := siteqa.FitEvidence(evidence, s.cfg.MaxContextChars)
	if len(evidence) == 0 {
		res := &siteqa.AnswerResult{
			Answer:   s.cfg.InsufficientAnswer,
			Grounded: false,
			Evidence: evidence,
		}
		if debug {
			res.Debug = &siteqa.Trace{Evidence: evidence}
		}
		return res, nil
	}

	prompt := BuildPrompt(block, question)

	raw, err := s.completer.Complete(ctx, prompt, siteqa.CompletionOptions{
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		System:      BuildSystemInstruction(s.cfg.Organization),
	})
	if err != nil {
		return nil, err
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		return nil, siteqa.Errorf(siteqa.EMALFORMED, "completion model returned an empty answer")
	}

	res := &siteqa.AnswerResult{
		Answer:   answer,
		Grounded: !s.isNoAnswer(answer),
		Evidence: evidence,
	}
	if debug {
		res.Debug = &siteqa.Trace{
			Evidence: evidence,
			Context:  block,
			Prompt:   prompt,
			Model:    s.completer.Model(),
		}
	}
	return res, nil
}

func (s *Synthesizer) isNoAnswer(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range s.cfg.NoAnswerPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// BuildSystemInstruction returns the instruction that restricts the model to
// the supplied context.
func BuildSystemInstruction(organization string) string {
	return fmt.Sprintf("You are a helpful assistant answering questions about %s using content from its website. "+
		"Answer only from the context provided. Be concise and accurate. "+
		"If the context does not contain the answer, say: \"I don't have information about that in the website content available to me.\" "+
		"Do not make up information.", organization)
}

// BuildPrompt builds the user prompt containing the context block and question.
func BuildPrompt(context, question string) string {
	var sb strings.Builder
	sb.WriteString("<context>\n")
	sb.WriteString(context)
	sb.WriteString("\n</context>\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\nAnswer:", question)
	return sb.String()
}

// Model returns the identifier of the completion model.
func (s *Synthesizer) Model() string {
	return s.completer.Model()
}
