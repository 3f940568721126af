// Package prompts contains the LLM prompt text for the trainer agent.
//
// Prompt text is Go code rather than config files because it is program
// logic: it benefits from compile-time embedding and can be validated by
// tests. Each prompt category gets its own file with an exported function
// returning the full prompt string.
package prompts
