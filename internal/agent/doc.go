// Package agent provides the text-generation backends used to produce and
// repair site artifacts.
//
// Every backend implements Generator. CLI backends (claude, codex, gemini)
// pipe the prompt to the tool's stdin and unwrap its JSON output; the openai
// backend talks to any OpenAI-compatible HTTP endpoint.
//
// Errors returned by Generate are classified: RetryableError for transient
// failures (non-zero exit, empty response, HTTP 5xx) and FatalError for
// failures that will not go away on retry (authentication, missing binary).
//
// Example usage:
//
//	gen, err := agent.NewGenerator("claude", agent.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	text, err := gen.Generate(ctx, &agent.Request{Prompt: prompt})
package agent
