// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.finrag.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.finrag/config.toml
//   - PromptStore: user-editable prompt templates in ~/.finrag/prompts
package file
